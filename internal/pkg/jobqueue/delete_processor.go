package jobqueue

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/imageprocessor"
	"github.com/trocalar/TrocaLar/internal/pkg/s3backup"
)

// EnqueuePhotoDeleteJob queues asynchronous removal of a photo and its files
func (q *Queue) EnqueuePhotoDeleteJob(photoID uint, photoUUID string) (*Job, error) {
	payload := PhotoDeleteJobPayload{
		PhotoID:   photoID,
		PhotoUUID: photoUUID,
	}
	return q.EnqueueJob(JobTypePhotoDelete, payload.ToMap())
}

// processPhotoDeleteJob removes local files, the S3 copy and the database row
func (q *Queue) processPhotoDeleteJob(ctx context.Context, job *Job) error {
	payload, err := PhotoDeleteJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse photo delete payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var photo models.PropertyImage
	if payload.PhotoID > 0 {
		if err := db.Unscoped().First(&photo, payload.PhotoID).Error; err != nil {
			log.Warnf("[PhotoDeleteJob] Photo %d not found by ID, trying UUID %s", payload.PhotoID, payload.PhotoUUID)
		}
	}
	if photo.ID == 0 && payload.PhotoUUID != "" {
		if err := db.Unscoped().Where("uuid = ?", payload.PhotoUUID).First(&photo).Error; err != nil {
			log.Infof("[PhotoDeleteJob] Photo %s not found in DB (already deleted)", payload.PhotoUUID)
			return nil
		}
	}
	if photo.ID == 0 {
		return nil
	}

	if err := imageprocessor.DeletePhotoFiles(&photo); err != nil {
		return fmt.Errorf("failed to delete photo files: %w", err)
	}

	// Remove the backup copy if the bucket is configured
	if config, cfgErr := s3backup.LoadConfig(); cfgErr == nil && config.IsEnabled() {
		client, clientErr := s3backup.NewClient(config)
		if clientErr != nil {
			return fmt.Errorf("failed to create S3 client: %w", clientErr)
		}
		created := photo.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		objectKey := config.GetObjectKey(photo.UUID, filepath.Ext(photo.FileName), created.Year(), int(created.Month()))
		if err := client.DeleteFile(objectKey); err != nil {
			log.Errorf("[PhotoDeleteJob] Failed to delete S3 object %s: %v", objectKey, err)
		}
	}

	if err := db.Unscoped().Delete(&photo).Error; err != nil {
		return fmt.Errorf("failed to delete photo row: %w", err)
	}

	log.Infof("[PhotoDeleteJob] Completed delete for photo %s (ID: %d)", photo.UUID, photo.ID)
	return nil
}
