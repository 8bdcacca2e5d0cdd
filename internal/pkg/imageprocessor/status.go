package imageprocessor

import (
	"fmt"
	"time"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/cache"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
)

// Cache key formats for photo processing status
const (
	PhotoStatusKeyFormat          = "photo:status:%s"
	PhotoStatusTimestampKeyFormat = "photo:status:timestamp:%s"
)

// Status values for photo processing
const (
	STATUS_PENDING    = "pending"
	STATUS_PROCESSING = "processing"
	STATUS_COMPLETED  = "completed"
	STATUS_FAILED     = "failed"
)

// SetPhotoStatus sets the processing status of a photo in the cache
func SetPhotoStatus(photoUUID string, status string) error {
	key := fmt.Sprintf(PhotoStatusKeyFormat, photoUUID)
	SetPhotoStatusTimestamp(photoUUID, time.Now())
	return cache.Set(key, status, 24*time.Hour)
}

// SetPhotoStatusTimestamp records when the status was last changed
func SetPhotoStatusTimestamp(photoUUID string, timestamp time.Time) error {
	key := fmt.Sprintf(PhotoStatusTimestampKeyFormat, photoUUID)
	return cache.Set(key, timestamp.Format(time.RFC3339), 24*time.Hour)
}

// GetPhotoStatus retrieves the processing status of a photo from the cache
func GetPhotoStatus(photoUUID string) (string, error) {
	key := fmt.Sprintf(PhotoStatusKeyFormat, photoUUID)
	return cache.Get(key)
}

// GetPhotoStatusTimestamp returns when the status was last changed
func GetPhotoStatusTimestamp(photoUUID string) (time.Time, error) {
	key := fmt.Sprintf(PhotoStatusTimestampKeyFormat, photoUUID)
	value, err := cache.Get(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// IsPhotoProcessingComplete reports whether a photo can be served with its
// generated variants (or the original, once processing is considered done).
func IsPhotoProcessingComplete(photoUUID string) bool {
	status, err := GetPhotoStatus(photoUUID)
	if err == nil && status == STATUS_COMPLETED {
		return true
	}

	db := database.GetDB()
	var photo models.PropertyImage
	if err := db.Where("uuid = ?", photoUUID).First(&photo).Error; err != nil {
		return false
	}

	if photo.HasThumbnails {
		SetPhotoStatus(photoUUID, STATUS_COMPLETED)
		return true
	}

	// HEIC uploads never get variants; the original is final.
	if IsHEIC(photo.FileName) {
		SetPhotoStatus(photoUUID, STATUS_COMPLETED)
		return true
	}

	// Photos uploaded before the variant pipeline existed have no cache entry.
	// After a grace period serve the original instead of waiting forever.
	if status == "" && time.Since(photo.CreatedAt) > 5*time.Minute {
		SetPhotoStatus(photoUUID, STATUS_COMPLETED)
		return true
	}

	// A worker crash can leave the status stuck. After 60 seconds fall back to
	// the original so the listing stays usable.
	if status == STATUS_PENDING || status == STATUS_PROCESSING {
		if timestamp, err := GetPhotoStatusTimestamp(photoUUID); err == nil {
			if time.Since(timestamp) > 60*time.Second {
				SetPhotoStatus(photoUUID, STATUS_COMPLETED)
				return true
			}
		}
	}

	return false
}
