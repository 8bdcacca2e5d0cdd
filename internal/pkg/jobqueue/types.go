package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypePhotoProcess JobType = "photo_process"
	JobTypePhotoDelete  JobType = "photo_delete"
	JobTypeS3Backup     JobType = "s3_backup"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// PhotoProcessJobPayload carries the data needed to generate photo variants
type PhotoProcessJobPayload struct {
	PhotoID      uint   `json:"photo_id"`
	PhotoUUID    string `json:"photo_uuid"`
	EnableBackup bool   `json:"enable_backup"`
}

// ToMap converts the payload to a map for storage
func (p PhotoProcessJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"photo_id":      p.PhotoID,
		"photo_uuid":    p.PhotoUUID,
		"enable_backup": p.EnableBackup,
	}
}

// PhotoProcessJobPayloadFromMap creates a payload from a map
func PhotoProcessJobPayloadFromMap(data map[string]interface{}) (*PhotoProcessJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PhotoProcessJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// PhotoDeleteJobPayload carries the data needed to remove a photo, its
// variants and any remote backup copy
type PhotoDeleteJobPayload struct {
	PhotoID   uint   `json:"photo_id"`
	PhotoUUID string `json:"photo_uuid"`
}

// ToMap converts the payload to a map for storage
func (p PhotoDeleteJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"photo_id":   p.PhotoID,
		"photo_uuid": p.PhotoUUID,
	}
}

// PhotoDeleteJobPayloadFromMap creates a payload from a map
func PhotoDeleteJobPayloadFromMap(data map[string]interface{}) (*PhotoDeleteJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PhotoDeleteJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// S3BackupJobPayload carries the data needed to push an original to S3
type S3BackupJobPayload struct {
	PhotoID   uint   `json:"photo_id"`
	PhotoUUID string `json:"photo_uuid"`
	FileSize  int64  `json:"file_size"`
}

// ToMap converts the payload to a map for storage
func (p S3BackupJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"photo_id":   p.PhotoID,
		"photo_uuid": p.PhotoUUID,
		"file_size":  p.FileSize,
	}
}

// S3BackupJobPayloadFromMap creates a payload from a map
func S3BackupJobPayloadFromMap(data map[string]interface{}) (*S3BackupJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload S3BackupJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
