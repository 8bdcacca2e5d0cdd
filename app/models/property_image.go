package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StorageKind values for PropertyImage
const (
	StorageKindLocal  = "local"  // only on local disk
	StorageKindBacked = "backed" // local disk plus S3 copy
)

// PropertyImage is a photo attached to a listing. Variants (thumbnails) are
// generated asynchronously by the job queue; HasThumbnails flips when the
// processor finishes.
type PropertyImage struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UUID          string `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	PropertyID    uint   `gorm:"index;not null" json:"property_id"`
	UserID        uint   `gorm:"index" json:"user_id"`
	FilePath      string `gorm:"type:varchar(255);not null" json:"file_path"`
	FileName      string `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize      int64  `gorm:"type:bigint" json:"file_size"`
	FileType      string `gorm:"type:varchar(50)" json:"file_type"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Position      int    `gorm:"default:0" json:"position"`
	IsCover       bool   `gorm:"default:false" json:"is_cover"`
	StorageKind   string `gorm:"type:varchar(16);not null;default:'local'" json:"storage_kind"`
	HasThumbnails bool   `gorm:"default:false" json:"has_thumbnails"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public identifier before the row is inserted.
func (pi *PropertyImage) BeforeCreate(tx *gorm.DB) error {
	if pi.UUID == "" {
		pi.UUID = uuid.New().String()
	}
	return nil
}
