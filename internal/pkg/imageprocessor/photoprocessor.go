package imageprocessor

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/storage"
)

// Variant names and their target widths. Height follows the aspect ratio.
const (
	VariantSmall  = "small"
	VariantMedium = "medium"

	SmallWidth  = 320
	MediumWidth = 800

	jpegQuality = 85
)

// VariantRelPath returns the storage-relative path of a generated variant.
// Variants live next to the original: photos/YYYY/MM/<uuid>_<variant>.jpg
func VariantRelPath(photo *models.PropertyImage, variant string) string {
	return filepath.Join(photo.FilePath, photo.UUID+"_"+variant+".jpg")
}

// OriginalRelPath returns the storage-relative path of the uploaded original.
func OriginalRelPath(photo *models.PropertyImage) string {
	return filepath.Join(photo.FilePath, photo.FileName)
}

// ProcessPhotoSync generates the thumbnail variants for a listing photo and
// updates the database row with the measured dimensions. The caller (job
// queue worker) owns status tracking around this call.
func ProcessPhotoSync(photo *models.PropertyImage) error {
	sm := storage.NewManager()
	originalPath := sm.FilePath(OriginalRelPath(photo))

	if IsHEIC(photo.FileName) {
		// No Go decoder wired for HEIC; serve the original as-is.
		log.Infof("[PhotoProcessor] Skipping variant generation for HEIC photo %s", photo.UUID)
		return nil
	}

	img, err := imaging.Open(originalPath)
	if err != nil {
		return fmt.Errorf("error opening original photo %s: %w", photo.UUID, err)
	}

	// Phone uploads carry EXIF orientation; bake it in before resizing so
	// variants and reported dimensions match what the user saw.
	if orientation := ReadOrientation(originalPath); orientation > 1 {
		img = ApplyOrientation(img, orientation)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	log.Debugf("[PhotoProcessor] %s dimensions: %dx%d", photo.UUID, width, height)

	if err := saveVariant(img, SmallWidth, sm.FilePath(VariantRelPath(photo, VariantSmall))); err != nil {
		return fmt.Errorf("error creating small variant for %s: %w", photo.UUID, err)
	}
	if err := saveVariant(img, MediumWidth, sm.FilePath(VariantRelPath(photo, VariantMedium))); err != nil {
		return fmt.Errorf("error creating medium variant for %s: %w", photo.UUID, err)
	}

	db := database.GetDB()
	if err := db.Model(photo).Updates(map[string]interface{}{
		"width":          width,
		"height":         height,
		"has_thumbnails": true,
	}).Error; err != nil {
		return fmt.Errorf("error updating photo %s: %w", photo.UUID, err)
	}
	photo.Width = width
	photo.Height = height
	photo.HasThumbnails = true

	log.Infof("[PhotoProcessor] Variants created for photo %s", photo.UUID)
	return nil
}

// saveVariant resizes to the target width (no upscaling) and writes a JPEG.
func saveVariant(img image.Image, targetWidth int, outputPath string) error {
	resized := img
	if img.Bounds().Dx() > targetWidth {
		resized = imaging.Resize(img, targetWidth, 0, imaging.Lanczos)
	}
	return imaging.Save(resized, outputPath, imaging.JPEGQuality(jpegQuality))
}

// DeletePhotoFiles removes the original and all variants from local storage.
// Missing files are not an error; deletes may run more than once.
func DeletePhotoFiles(photo *models.PropertyImage) error {
	sm := storage.NewManager()

	paths := []string{
		OriginalRelPath(photo),
		VariantRelPath(photo, VariantSmall),
		VariantRelPath(photo, VariantMedium),
	}

	var firstErr error
	for _, rel := range paths {
		if _, err := sm.DeleteFile(rel); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PhotoURL returns the public URL for a photo in the requested variant.
// Falls back to the original while variants are still being generated or for
// the empty variant.
func PhotoURL(photo *models.PropertyImage, variant string) string {
	sm := storage.NewManager()
	if variant == "" || !photo.HasThumbnails {
		return sm.PublicURL(filepath.ToSlash(OriginalRelPath(photo)))
	}
	if variant != VariantSmall && variant != VariantMedium {
		variant = VariantMedium
	}
	return sm.PublicURL(filepath.ToSlash(VariantRelPath(photo, variant)))
}

// IsHEIC reports whether the file extension is a HEIC container. Those are
// accepted on upload but decoded client-side only; variants are skipped.
func IsHEIC(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".heic")
}
