package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/internal/pkg/shortener"
)

const (
	PropertyTypeApartment = "apartamento"
	PropertyTypeHouse     = "casa"
	PropertyTypeLand      = "terreno"
	PropertyTypeFarm      = "sitio"
	PropertyTypeCommerce  = "comercial"
)

const (
	PropertyStatusDraft     = "draft"
	PropertyStatusPublished = "published"
	PropertyStatusPaused    = "paused"
	PropertyStatusSwapped   = "swapped"
	PropertyStatusRemoved   = "removed"
)

// Property is one listing offered for swap. The share link slug is a public
// short identifier; the numeric ID never leaves the API.
type Property struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UUID           string  `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	UserID         uint    `gorm:"index;not null" json:"user_id"`
	User           User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title          string  `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=5,max=255"`
	Description    string  `gorm:"type:text" json:"description" validate:"max=5000"`
	Type           string  `gorm:"type:varchar(32);not null;index" json:"type" validate:"oneof=apartamento casa terreno sitio comercial"`
	City           string  `gorm:"type:varchar(120);not null;index" json:"city" validate:"required,max=120"`
	UF             string  `gorm:"type:varchar(2);not null;index" json:"uf" validate:"required,len=2"`
	Neighborhood   string  `gorm:"type:varchar(120)" json:"neighborhood" validate:"max=120"`
	AreaM2         float64 `gorm:"type:numeric(10,2);default:0" json:"area_m2" validate:"gte=0"`
	Rooms          int     `gorm:"default:0" json:"rooms" validate:"gte=0,lte=50"`
	EstimatedValue float64 `gorm:"type:numeric(14,2);default:0" json:"estimated_value" validate:"gte=0"`
	SwapPreference string  `gorm:"type:text" json:"swap_preference" validate:"max=2000"`
	Status         string  `gorm:"type:varchar(32);not null;default:'draft';index" json:"status"`
	Featured       bool    `gorm:"default:false;index" json:"featured"`
	ShareLink      string  `gorm:"type:varchar(32);uniqueIndex" json:"share_link"`
	ViewCount      int     `gorm:"default:0" json:"view_count"`
	PublishedAt    *time.Time `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Images []PropertyImage `gorm:"foreignKey:PropertyID" json:"images,omitempty"`
}

func (p *Property) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// BeforeCreate assigns the public identifiers before the row is inserted.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.ShareLink == "" {
		slug, err := shortener.GenerateSecureSlug(10)
		if err != nil {
			return err
		}
		p.ShareLink = slug
	}
	return nil
}

// IsVisible reports whether the listing can be shown to other users.
func (p *Property) IsVisible() bool {
	return p.Status == PropertyStatusPublished
}

// CanBePublished reports whether the listing holds the minimum data to go live.
func (p *Property) CanBePublished() bool {
	return p.Title != "" && p.City != "" && p.UF != "" && p.Type != ""
}
