package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

// paymentRepository implements the read-only PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// ListRecent retrieves payments across all users, newest first
func (r *paymentRepository) ListRecent(offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	return payments, err
}

// Count returns the total number of payment rows
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}

// SumPaidAmount totals confirmed revenue within a date range
func (r *paymentRepository) SumPaidAmount(startDate, endDate time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.Payment{}).
		Where("status = ? AND paid_date BETWEEN ? AND ?", models.PaymentStatusPaid, startDate, endDate).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// GetDailyStats returns daily counts of confirmed payments for a date range
func (r *paymentRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	return dailyCounts(
		r.db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusPaid),
		startDate, endDate,
	)
}
