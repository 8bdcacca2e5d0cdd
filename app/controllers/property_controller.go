package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/entitlements"
	"github.com/trocalar/TrocaLar/internal/pkg/imageprocessor"
	"github.com/trocalar/TrocaLar/internal/pkg/jobqueue"
	counter "github.com/trocalar/TrocaLar/internal/pkg/metrics/counter"
	"github.com/trocalar/TrocaLar/internal/pkg/statistics"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

const propertyPageSize = 20

type propertyRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Type           string  `json:"type"`
	City           string  `json:"city"`
	UF             string  `json:"uf"`
	Neighborhood   string  `json:"neighborhood"`
	AreaM2         float64 `json:"area_m2"`
	Rooms          int     `json:"rooms"`
	EstimatedValue float64 `json:"estimated_value"`
	SwapPreference string  `json:"swap_preference"`
}

func propertyJSON(p *models.Property, includeOwner bool) fiber.Map {
	images := make([]fiber.Map, 0, len(p.Images))
	for i := range p.Images {
		img := &p.Images[i]
		images = append(images, fiber.Map{
			"uuid":     img.UUID,
			"position": img.Position,
			"is_cover": img.IsCover,
			"width":    img.Width,
			"height":   img.Height,
			"url":      imageprocessor.PhotoURL(img, ""),
			"small":    imageprocessor.PhotoURL(img, imageprocessor.VariantSmall),
			"medium":   imageprocessor.PhotoURL(img, imageprocessor.VariantMedium),
		})
	}

	out := fiber.Map{
		"uuid":            p.UUID,
		"title":           p.Title,
		"description":     p.Description,
		"type":            p.Type,
		"city":            p.City,
		"uf":              p.UF,
		"neighborhood":    p.Neighborhood,
		"area_m2":         p.AreaM2,
		"rooms":           p.Rooms,
		"estimated_value": p.EstimatedValue,
		"swap_preference": p.SwapPreference,
		"status":          p.Status,
		"featured":        p.Featured,
		"share_link":      p.ShareLink,
		"view_count":      p.ViewCount,
		"published_at":    p.PublishedAt,
		"created_at":      p.CreatedAt,
		"images":          images,
	}
	if includeOwner {
		out["owner"] = fiber.Map{
			"id":   p.User.ID,
			"name": p.User.Name,
			"city": p.User.City,
			"uf":   p.User.UF,
		}
	}
	return out
}

func applyPropertyRequest(p *models.Property, req *propertyRequest) {
	p.Title = req.Title
	p.Description = req.Description
	p.Type = strings.ToLower(strings.TrimSpace(req.Type))
	p.City = req.City
	p.UF = strings.ToUpper(strings.TrimSpace(req.UF))
	p.Neighborhood = req.Neighborhood
	p.AreaM2 = req.AreaM2
	p.Rooms = req.Rooms
	p.EstimatedValue = req.EstimatedValue
	p.SwapPreference = req.SwapPreference
}

// HandleCreateProperty creates a new draft listing.
func HandleCreateProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req propertyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados do anúncio inválidos")
	}

	property := &models.Property{
		UserID: userCtx.UserID,
		Status: models.PropertyStatusDraft,
	}
	applyPropertyRequest(property, &req)

	if err := property.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados do anúncio inválidos: verifique os campos obrigatórios")
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	if err := propertyRepo.Create(property); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao criar o anúncio")
	}

	return c.Status(fiber.StatusCreated).JSON(propertyJSON(property, false))
}

// loadOwnedProperty fetches a listing and checks ownership.
func loadOwnedProperty(c *fiber.Ctx, userCtx usercontext.UserContext) (*models.Property, error) {
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	property, err := propertyRepo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return nil, jsonError(c, fiber.StatusNotFound, "Anúncio não encontrado")
	}
	if property.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, jsonError(c, fiber.StatusForbidden, "Este anúncio não pertence a você")
	}
	return property, nil
}

// HandleUpdateProperty edits an owned listing.
func HandleUpdateProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	if property.Status == models.PropertyStatusSwapped || property.Status == models.PropertyStatusRemoved {
		return jsonError(c, fiber.StatusConflict, "Este anúncio não pode mais ser editado")
	}

	var req propertyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados do anúncio inválidos")
	}
	applyPropertyRequest(property, &req)

	if err := property.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados do anúncio inválidos: verifique os campos obrigatórios")
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	if err := propertyRepo.Update(property); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar o anúncio")
	}

	return c.JSON(propertyJSON(property, false))
}

// HandleDeleteProperty removes a listing and queues its photos for deletion.
func HandleDeleteProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()

	images, err := propertyRepo.GetImages(property.ID)
	if err != nil {
		log.Errorf("Failed to list images of property %d: %v", property.ID, err)
	}

	property.Status = models.PropertyStatusRemoved
	if err := propertyRepo.Update(property); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao remover o anúncio")
	}
	if err := propertyRepo.Delete(property.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao remover o anúncio")
	}

	queue := jobqueue.GetManager().GetQueue()
	for _, img := range images {
		if _, err := queue.EnqueuePhotoDeleteJob(img.ID, img.UUID); err != nil {
			log.Errorf("Failed to enqueue photo delete for %s: %v", img.UUID, err)
		}
	}

	go statistics.UpdateStatisticsCache()

	return c.JSON(fiber.Map{"message": "Anúncio removido"})
}

// HandlePublishProperty publishes a draft or paused listing, enforcing the
// plan's active listing limit.
func HandlePublishProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	if property.Status == models.PropertyStatusPublished {
		return c.JSON(propertyJSON(property, false))
	}
	if !property.CanBePublished() {
		return jsonError(c, fiber.StatusBadRequest, "Preencha título, tipo, cidade e UF antes de publicar")
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	activeCount, err := propertyRepo.CountActiveByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao verificar o limite de anúncios")
	}

	userSettings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao verificar o limite de anúncios")
	}

	// The listing being published is itself counted as active
	if !entitlements.CanPublishListing(userSettings, models.GetAppSettings(), int(activeCount)-1) {
		return jsonError(c, fiber.StatusForbidden, "Limite de anúncios do seu plano atingido. Faça upgrade para publicar mais.")
	}

	now := time.Now()
	property.Status = models.PropertyStatusPublished
	property.PublishedAt = &now
	if err := propertyRepo.Update(property); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao publicar o anúncio")
	}

	go statistics.UpdateStatisticsCache()

	return c.JSON(propertyJSON(property, false))
}

// HandlePauseProperty hides a published listing without deleting it.
func HandlePauseProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	property, ferr := loadOwnedProperty(c, userCtx)
	if property == nil {
		return ferr
	}

	if property.Status != models.PropertyStatusPublished {
		return jsonError(c, fiber.StatusConflict, "Apenas anúncios publicados podem ser pausados")
	}

	property.Status = models.PropertyStatusPaused
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	if err := propertyRepo.Update(property); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao pausar o anúncio")
	}

	return c.JSON(propertyJSON(property, false))
}

// HandleMyProperties lists the logged-in user's listings.
func HandleMyProperties(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	properties, err := propertyRepo.GetByUserID(userCtx.UserID, (page-1)*propertyPageSize, propertyPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar seus anúncios")
	}

	out := make([]fiber.Map, 0, len(properties))
	for i := range properties {
		out = append(out, propertyJSON(&properties[i], false))
	}

	return c.JSON(fiber.Map{
		"page":       page,
		"properties": out,
	})
}

// HandleSearchProperties is the public listing search.
func HandleSearchProperties(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	filter := repository.PropertyFilter{
		Query: c.Query("q"),
		City:  c.Query("city"),
		UF:    c.Query("uf"),
		Type:  c.Query("type"),
	}

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	properties, total, err := propertyRepo.Search(filter, (page-1)*propertyPageSize, propertyPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro na busca de anúncios")
	}

	out := make([]fiber.Map, 0, len(properties))
	for i := range properties {
		out = append(out, propertyJSON(&properties[i], true))
	}

	return c.JSON(fiber.Map{
		"page":       page,
		"total":      total,
		"properties": out,
	})
}

// HandleRecentProperties returns the latest published listings for the home page.
func HandleRecentProperties(c *fiber.Ctx) error {
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	properties, err := propertyRepo.GetRecentPublished(12)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar anúncios recentes")
	}

	out := make([]fiber.Map, 0, len(properties))
	for i := range properties {
		out = append(out, propertyJSON(&properties[i], true))
	}

	return c.JSON(fiber.Map{"properties": out})
}

// HandleGetProperty returns one listing. Unpublished listings are visible to
// their owner and admins only.
func HandleGetProperty(c *fiber.Ctx) error {
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	property, err := propertyRepo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Anúncio não encontrado")
	}

	userCtx := usercontext.GetUserContext(c)
	isOwner := userCtx.IsLoggedIn && (property.UserID == userCtx.UserID || userCtx.IsAdmin)
	if !property.IsVisible() && !isOwner {
		return jsonError(c, fiber.StatusNotFound, "Anúncio não encontrado")
	}

	if !isOwner {
		if err := counter.AddListingView(property.ID); err != nil {
			log.Debugf("Failed to count view for property %d: %v", property.ID, err)
		}
	}

	return c.JSON(propertyJSON(property, true))
}

// HandleShareLink resolves a public share slug to its listing.
func HandleShareLink(c *fiber.Ctx) error {
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	property, err := propertyRepo.GetByShareLink(c.Params("slug"))
	if err != nil || !property.IsVisible() {
		return jsonError(c, fiber.StatusNotFound, "Anúncio não encontrado")
	}

	if err := counter.AddListingView(property.ID); err != nil {
		log.Debugf("Failed to count view for property %d: %v", property.ID, err)
	}

	return c.JSON(propertyJSON(property, true))
}
