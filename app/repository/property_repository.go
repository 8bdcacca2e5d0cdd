package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

// propertyRepository implements the PropertyRepository interface
type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository instance
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// Create creates a new listing in the database
func (r *propertyRepository) Create(property *models.Property) error {
	return r.db.Create(property).Error
}

// GetByID retrieves a listing by its ID, images included
func (r *propertyRepository) GetByID(id uint) (*models.Property, error) {
	var property models.Property
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByUUID retrieves a listing by its public UUID
func (r *propertyRepository) GetByUUID(uuid string) (*models.Property, error) {
	var property models.Property
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("uuid = ?", uuid).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByShareLink retrieves a listing by its share slug
func (r *propertyRepository) GetByShareLink(shareLink string) (*models.Property, error) {
	var property models.Property
	err := r.db.Preload("User").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("share_link = ?", shareLink).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByUserID retrieves the user's listings, newest first
func (r *propertyRepository) GetByUserID(userID uint, offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Preload("Images").
		Where("user_id = ? AND status <> ?", userID, models.PropertyStatusRemoved).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&properties).Error
	return properties, err
}

// Update updates an existing listing
func (r *propertyRepository) Update(property *models.Property) error {
	return r.db.Save(property).Error
}

// Delete soft deletes a listing
func (r *propertyRepository) Delete(id uint) error {
	return r.db.Delete(&models.Property{}, id).Error
}

// List retrieves a paginated list of all listings (admin view)
func (r *propertyRepository) List(offset, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&properties).Error
	return properties, err
}

// Count returns the total number of listings
func (r *propertyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Property{}).Count(&count).Error
	return count, err
}

// CountActiveByUserID counts the user's listings that occupy plan quota
func (r *propertyRepository) CountActiveByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Property{}).
		Where("user_id = ? AND status IN ?", userID, []string{
			models.PropertyStatusDraft,
			models.PropertyStatusPublished,
			models.PropertyStatusPaused,
		}).
		Count(&count).Error
	return count, err
}

// Search returns published listings matching the filter plus the total count.
// Featured listings sort first regardless of age.
func (r *propertyRepository) Search(filter PropertyFilter, offset, limit int) ([]models.Property, int64, error) {
	q := r.db.Model(&models.Property{}).Where("status = ?", models.PropertyStatusPublished)

	if s := strings.TrimSpace(filter.Query); s != "" {
		pattern := "%" + s + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ? OR neighborhood ILIKE ?", pattern, pattern, pattern)
	}
	if filter.City != "" {
		q = q.Where("city ILIKE ?", filter.City)
	}
	if filter.UF != "" {
		q = q.Where("uf = ?", strings.ToUpper(filter.UF))
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var properties []models.Property
	err := q.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).
		Order("featured DESC, published_at DESC").
		Offset(offset).Limit(limit).
		Find(&properties).Error
	return properties, total, err
}

// GetRecentPublished returns the newest published listings for the home feed
func (r *propertyRepository) GetRecentPublished(limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_cover = ?", true)
	}).
		Where("status = ?", models.PropertyStatusPublished).
		Order("featured DESC, published_at DESC").
		Limit(limit).
		Find(&properties).Error
	return properties, err
}

// IncrementViewCount bumps the view counter without touching updated_at
func (r *propertyRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// GetImages returns a listing's photos in display order
func (r *propertyRepository) GetImages(propertyID uint) ([]models.PropertyImage, error) {
	var images []models.PropertyImage
	err := r.db.Where("property_id = ?", propertyID).
		Order("position ASC").
		Find(&images).Error
	return images, err
}

// CountImages counts a listing's photos
func (r *propertyRepository) CountImages(propertyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PropertyImage{}).
		Where("property_id = ?", propertyID).
		Count(&count).Error
	return count, err
}

// AddImage attaches a photo to a listing
func (r *propertyRepository) AddImage(image *models.PropertyImage) error {
	return r.db.Create(image).Error
}

// GetImageByUUID retrieves a photo by its public UUID
func (r *propertyRepository) GetImageByUUID(uuid string) (*models.PropertyImage, error) {
	var image models.PropertyImage
	err := r.db.Where("uuid = ?", uuid).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// UpdateImage saves photo metadata changes
func (r *propertyRepository) UpdateImage(image *models.PropertyImage) error {
	return r.db.Save(image).Error
}

// DeleteImage soft deletes a photo
func (r *propertyRepository) DeleteImage(id uint) error {
	return r.db.Delete(&models.PropertyImage{}, id).Error
}

// GetDailyStats returns daily listing creation statistics for a date range
func (r *propertyRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	return dailyCounts(r.db.Model(&models.Property{}), startDate, endDate)
}
