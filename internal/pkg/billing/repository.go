package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trocalar/TrocaLar/app/models"
)

// Repository provides the DB operations used by the billing service. Both the
// GORM implementation and the in-memory fake satisfy it; the service never
// touches a DB handle directly.
type Repository interface {
	ActiveSubscriptionByUser(userID uint) (*models.Subscription, error)
	SubscriptionByExternalID(externalID string) (*models.Subscription, error)
	CreateSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	PaymentByExternalID(externalID string) (*models.Payment, error)
	UpsertPayment(p *models.Payment) error
	ListPaymentsByUser(userID uint, offset, limit int) ([]models.Payment, error)
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ActiveSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Order("started_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SubscriptionByExternalID(externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("external_id = ?", externalID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) PaymentByExternalID(externalID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("external_id = ?", externalID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPayment inserts or updates the payment keyed on external_id. The
// ON CONFLICT clause leans on the unique index so two concurrent webhook
// deliveries for the same gateway payment cannot produce two rows: the
// losing insert turns into the update.
func (r *gormRepository) UpsertPayment(p *models.Payment) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subscription_id",
			"user_id",
			"amount",
			"status",
			"method",
			"due_date",
			"paid_date",
			"description",
			"updated_at",
		}),
	}).Create(p).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("external_id = ?", p.ExternalID).First(p).Error
}

func (r *gormRepository) ListPaymentsByUser(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	return payments, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
