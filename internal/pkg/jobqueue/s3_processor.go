package jobqueue

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/imageprocessor"
	"github.com/trocalar/TrocaLar/internal/pkg/s3backup"
	"github.com/trocalar/TrocaLar/internal/pkg/storage"
)

// EnqueueS3BackupJob creates and enqueues an S3 backup job for an original
func (q *Queue) EnqueueS3BackupJob(photoID uint, photoUUID string, fileSize int64) (*Job, error) {
	payload := S3BackupJobPayload{
		PhotoID:   photoID,
		PhotoUUID: photoUUID,
		FileSize:  fileSize,
	}
	return q.EnqueueJob(JobTypeS3Backup, payload.ToMap())
}

// processS3BackupJob pushes the original file of a photo to the backup bucket
func (q *Queue) processS3BackupJob(ctx context.Context, job *Job) error {
	payload, err := S3BackupJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse S3 backup job payload: %w", err)
	}

	log.Infof("[S3Backup] Processing backup job for photo %s (ID: %d)", payload.PhotoUUID, payload.PhotoID)

	config, err := s3backup.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load S3 config: %w", err)
	}

	if !config.IsEnabled() {
		return fmt.Errorf("S3 backup is disabled")
	}

	s3Client, err := s3backup.NewClient(config)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
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
	fullPath := sm.FilePath(imageprocessor.OriginalRelPath(&photo))

	objectKey := config.GetObjectKey(photo.UUID, filepath.Ext(photo.FileName), photo.CreatedAt.Year(), int(photo.CreatedAt.Month()))

	log.Infof("[S3Backup] Uploading %s as %s", fullPath, objectKey)
	result, err := s3Client.UploadFile(fullPath, objectKey)
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	if err := db.Model(&photo).Update("storage_kind", models.StorageKindBacked).Error; err != nil {
		return fmt.Errorf("failed to mark photo as backed up: %w", err)
	}

	log.Infof("[S3Backup] Successfully backed up photo %s to s3://%s/%s",
		photo.UUID, result.BucketName, result.ObjectKey)

	return nil
}
