package models

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the application settings structure
type AppSettings struct {
	SiteTitle            string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription      string `json:"site_description" validate:"max=500"`
	RegistrationEnabled  bool   `json:"registration_enabled"`
	ListingUploadEnabled bool   `json:"listing_upload_enabled"`
	MaintenanceMode      bool   `json:"maintenance_mode"`
	S3BackupEnabled      bool   `json:"s3_backup_enabled"`
	JobQueueWorkerCount  int    `json:"job_queue_worker_count" validate:"min=1,max=32"`
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return appSettings
}

// Validate checks the settings against their constraints
func (s *AppSettings) Validate() error {
	v := validator.New()
	return v.Struct(s)
}

// IsRegistrationEnabled is nil-safe for early boot paths.
func (s *AppSettings) IsRegistrationEnabled() bool {
	return s != nil && s.RegistrationEnabled
}

// IsListingUploadEnabled is nil-safe for early boot paths.
func (s *AppSettings) IsListingUploadEnabled() bool {
	return s != nil && s.ListingUploadEnabled
}

// IsMaintenanceMode is nil-safe for early boot paths.
func (s *AppSettings) IsMaintenanceMode() bool {
	return s != nil && s.MaintenanceMode
}

// IsS3BackupEnabled is nil-safe for early boot paths.
func (s *AppSettings) IsS3BackupEnabled() bool {
	return s != nil && s.S3BackupEnabled
}

// GetJobQueueWorkerCount returns the configured worker count, falling back to 5.
func (s *AppSettings) GetJobQueueWorkerCount() int {
	if s == nil || s.JobQueueWorkerCount < 1 {
		return 5
	}
	return s.JobQueueWorkerCount
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults
	appSettings = &AppSettings{
		SiteTitle:            "TrocaLar",
		SiteDescription:      "Troque seu imóvel sem intermediários",
		RegistrationEnabled:  true,
		ListingUploadEnabled: true,
		MaintenanceMode:      false,
		S3BackupEnabled:      false,
		JobQueueWorkerCount:  5,
	}

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "site_description":
			appSettings.SiteDescription = setting.Value
		case "registration_enabled":
			appSettings.RegistrationEnabled = setting.Value == "true"
		case "listing_upload_enabled":
			appSettings.ListingUploadEnabled = setting.Value == "true"
		case "maintenance_mode":
			appSettings.MaintenanceMode = setting.Value == "true"
		case "s3_backup_enabled":
			appSettings.S3BackupEnabled = setting.Value == "true"
		case "job_queue_worker_count":
			if n, err := strconv.Atoi(setting.Value); err == nil && n > 0 {
				appSettings.JobQueueWorkerCount = n
			}
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		"site_title":             settings.SiteTitle,
		"site_description":       settings.SiteDescription,
		"registration_enabled":   fmt.Sprintf("%t", settings.RegistrationEnabled),
		"listing_upload_enabled": fmt.Sprintf("%t", settings.ListingUploadEnabled),
		"maintenance_mode":       fmt.Sprintf("%t", settings.MaintenanceMode),
		"s3_backup_enabled":      fmt.Sprintf("%t", settings.S3BackupEnabled),
		"job_queue_worker_count": strconv.Itoa(settings.GetJobQueueWorkerCount()),
	}

	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{Key: key, Value: value, Type: "string"}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
				continue
			}
			return fmt.Errorf("failed to read setting %s: %w", key, result.Error)
		}
		setting.Value = value
		if err := db.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	appSettings = settings
	return nil
}
