package jobqueue

import (
	"context"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/imageprocessor"
	"github.com/trocalar/TrocaLar/internal/pkg/storage"
)

// EnqueuePhotoProcessJob queues variant generation for a freshly uploaded photo
func (q *Queue) EnqueuePhotoProcessJob(photoID uint, photoUUID string, enableBackup bool) (*Job, error) {
	imageprocessor.SetPhotoStatus(photoUUID, imageprocessor.STATUS_PENDING)

	payload := PhotoProcessJobPayload{
		PhotoID:      photoID,
		PhotoUUID:    photoUUID,
		EnableBackup: enableBackup,
	}
	return q.EnqueueJob(JobTypePhotoProcess, payload.ToMap())
}

// processPhotoProcessJob generates variants for one photo
func (q *Queue) processPhotoProcessJob(ctx context.Context, job *Job) error {
	payload, err := PhotoProcessJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse photo processing payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var photo models.PropertyImage
	if err := db.Where("uuid = ?", payload.PhotoUUID).First(&photo).Error; err != nil {
		return fmt.Errorf("failed to find photo %s: %w", payload.PhotoUUID, err)
	}

	sm := storage.NewManager()
	originalPath := sm.FilePath(imageprocessor.OriginalRelPath(&photo))
	if _, err := os.Stat(originalPath); os.IsNotExist(err) {
		return fmt.Errorf("original file not found: %s", originalPath)
	}

	if err := imageprocessor.SetPhotoStatus(payload.PhotoUUID, imageprocessor.STATUS_PROCESSING); err != nil {
		log.Errorf("[JobQueue] Failed to set processing status for %s: %v", payload.PhotoUUID, err)
	}

	if err := imageprocessor.ProcessPhotoSync(&photo); err != nil {
		if statusErr := imageprocessor.SetPhotoStatus(payload.PhotoUUID, imageprocessor.STATUS_FAILED); statusErr != nil {
			log.Errorf("[JobQueue] Failed to set failed status for %s: %v", payload.PhotoUUID, statusErr)
		}
		return fmt.Errorf("photo processing failed for %s: %w", payload.PhotoUUID, err)
	}

	if err := imageprocessor.SetPhotoStatus(payload.PhotoUUID, imageprocessor.STATUS_COMPLETED); err != nil {
		log.Errorf("[JobQueue] Failed to set completed status for %s: %v", payload.PhotoUUID, err)
		return fmt.Errorf("failed to set completed status: %w", err)
	}

	// Originals go to S3 after variants exist so a retry reprocesses everything
	if payload.EnableBackup {
		if _, err := q.EnqueueS3BackupJob(photo.ID, photo.UUID, photo.FileSize); err != nil {
			log.Errorf("[JobQueue] Failed to enqueue S3 backup for %s: %v", photo.UUID, err)
		}
	}

	log.Infof("[JobQueue] Photo processing completed for %s", payload.PhotoUUID)
	return nil
}
