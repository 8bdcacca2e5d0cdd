package controllers

import (
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/entitlements"
	"github.com/trocalar/TrocaLar/internal/pkg/env"
	"github.com/trocalar/TrocaLar/internal/pkg/imageprocessor"
	"github.com/trocalar/TrocaLar/internal/pkg/jobqueue"
	"github.com/trocalar/TrocaLar/internal/pkg/security"
	"github.com/trocalar/TrocaLar/internal/pkg/storage"
	"github.com/trocalar/TrocaLar/internal/pkg/upload"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

const (
	maxPhotoBytes  = 10 * 1024 * 1024
	uploadTokenTTL = 15 * time.Minute
)

func uploadTokenSecret() string {
	return env.GetEnv("UPLOAD_TOKEN_SECRET", env.GetEnv("SESSION_SECRET", ""))
}

// HandleRequestUploadToken issues a short-lived upload grant for one listing.
// The grant is refused when the plan's photo limit is already reached.
func HandleRequestUploadToken(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	photoCount, err := propertyRepo.CountImages(property.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao verificar o limite de fotos")
	}

	userSettings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao verificar o limite de fotos")
	}

	if !entitlements.CanAddPhoto(userSettings, int(photoCount)) {
		return jsonError(c, fiber.StatusForbidden, "Limite de fotos do seu plano atingido para este anúncio")
	}

	token, err := security.GenerateUploadToken(userCtx.UserID, property.ID, maxPhotoBytes, uploadTokenTTL, uploadTokenSecret())
	if err != nil {
		log.Errorf("Failed to generate upload token: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao preparar o envio")
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"max_bytes":  maxPhotoBytes,
		"expires_in": int(uploadTokenTTL.Seconds()),
	})
}

// HandleUploadPhoto stores one photo of a listing and queues thumbnail
// generation. The upload token from HandleRequestUploadToken must come in the
// X-Upload-Token header.
func HandleUploadPhoto(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	claims, err := security.VerifyUploadToken(c.Get("X-Upload-Token"), uploadTokenSecret())
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Token de envio inválido ou expirado")
	}
	if claims.UserID != userCtx.UserID || claims.PropertyID != property.ID {
		return jsonError(c, fiber.StatusForbidden, "Token de envio não corresponde a este anúncio")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Nenhum arquivo enviado")
	}
	if fileHeader.Size > claims.MaxBytes {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "A foto excede o tamanho máximo de 10 MB")
	}

	// Photo limit is re-checked here; the token may have been issued a while ago
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	photoCount, err := propertyRepo.CountImages(property.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao verificar o limite de fotos")
	}
	userSettings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao verificar o limite de fotos")
	}
	if !entitlements.CanAddPhoto(userSettings, int(photoCount)) {
		return jsonError(c, fiber.StatusForbidden, "Limite de fotos do seu plano atingido para este anúncio")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao ler o arquivo enviado")
	}
	defer src.Close()

	head := make([]byte, 512)
	n, _ := src.Read(head)
	fileType, err := upload.ValidateImageBySniff(fileHeader.Filename, head[:n])
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if _, err := src.Seek(0, 0); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao ler o arquivo enviado")
	}

	// The UUID is assigned up front so the file key exists before the row
	photo := &models.PropertyImage{
		UUID:        uuid.New().String(),
		PropertyID:  property.ID,
		UserID:      userCtx.UserID,
		FileSize:    fileHeader.Size,
		FileType:    fileType,
		Position:    int(photoCount),
		IsCover:     photoCount == 0,
		StorageKind: models.StorageKindLocal,
	}

	now := time.Now()
	ext := filepath.Ext(fileHeader.Filename)
	relPath := storage.PhotoKey(photo.UUID, ext, now)
	photo.FilePath = filepath.Dir(relPath)
	photo.FileName = filepath.Base(relPath)

	manager := storage.NewManager()
	if _, err := manager.SaveFile(src, relPath); err != nil {
		log.Errorf("Failed to store photo %s: %v", photo.UUID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a foto")
	}

	if err := propertyRepo.AddImage(photo); err != nil {
		if _, delErr := manager.DeleteFile(relPath); delErr != nil {
			log.Errorf("Failed to clean up photo file %s: %v", relPath, delErr)
		}
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a foto")
	}

	queue := jobqueue.GetManager().GetQueue()
	enableBackup := models.GetAppSettings().IsS3BackupEnabled()
	if _, err := queue.EnqueuePhotoProcessJob(photo.ID, photo.UUID, enableBackup); err != nil {
		log.Errorf("Failed to enqueue processing for photo %s: %v", photo.UUID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"uuid":     photo.UUID,
		"position": photo.Position,
		"is_cover": photo.IsCover,
		"url":      imageprocessor.PhotoURL(photo, ""),
		"status":   imageprocessor.STATUS_PENDING,
	})
}

// HandlePhotoStatus reports thumbnail processing progress for polling clients.
func HandlePhotoStatus(c *fiber.Ctx) error {
	photoUUID := c.Params("uuid")

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	photo, err := propertyRepo.GetImageByUUID(photoUUID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Foto não encontrada")
	}

	status, _ := imageprocessor.GetPhotoStatus(photoUUID)
	complete := imageprocessor.IsPhotoProcessingComplete(photoUUID)

	return c.JSON(fiber.Map{
		"uuid":     photo.UUID,
		"status":   status,
		"complete": complete,
		"url":      imageprocessor.PhotoURL(photo, ""),
		"small":    imageprocessor.PhotoURL(photo, imageprocessor.VariantSmall),
		"medium":   imageprocessor.PhotoURL(photo, imageprocessor.VariantMedium),
	})
}

// HandleDeletePhoto removes a photo row and queues file cleanup.
func HandleDeletePhoto(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	photo, err := propertyRepo.GetImageByUUID(c.Params("uuid"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Foto não encontrada")
	}
	if photo.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return jsonError(c, fiber.StatusForbidden, "Esta foto não pertence a você")
	}

	if err := propertyRepo.DeleteImage(photo.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao remover a foto")
	}

	queue := jobqueue.GetManager().GetQueue()
	if _, err := queue.EnqueuePhotoDeleteJob(photo.ID, photo.UUID); err != nil {
		log.Errorf("Failed to enqueue delete for photo %s: %v", photo.UUID, err)
	}

	return c.JSON(fiber.Map{"message": "Foto removida"})
}

type reorderPhotosRequest struct {
	Order []string `json:"order"`
	Cover string   `json:"cover"`
}

// HandleReorderPhotos updates photo positions and the cover flag. Order is the
// full list of photo UUIDs in the desired sequence.
func HandleReorderPhotos(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	var req reorderPhotosRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	images, err := propertyRepo.GetImages(property.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as fotos")
	}

	byUUID := make(map[string]*models.PropertyImage, len(images))
	for i := range images {
		byUUID[images[i].UUID] = &images[i]
	}

	position := 0
	for _, u := range req.Order {
		img, ok := byUUID[u]
		if !ok {
			return jsonError(c, fiber.StatusBadRequest, "A lista contém uma foto que não pertence a este anúncio")
		}
		img.Position = position
		position++
	}

	for i := range images {
		img := &images[i]
		img.IsCover = req.Cover != "" && img.UUID == req.Cover
		if err := propertyRepo.UpdateImage(img); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar a ordem das fotos")
		}
	}

	return c.JSON(fiber.Map{"message": "Fotos atualizadas"})
}
