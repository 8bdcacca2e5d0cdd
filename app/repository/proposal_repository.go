package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

// proposalRepository implements the ProposalRepository interface
type proposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new proposal repository instance
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

// Create creates a new swap proposal
func (r *proposalRepository) Create(proposal *models.SwapProposal) error {
	return r.db.Create(proposal).Error
}

// GetByID retrieves a proposal with both listings preloaded
func (r *proposalRepository) GetByID(id uint) (*models.SwapProposal, error) {
	var proposal models.SwapProposal
	err := r.db.Preload("FromProperty").Preload("ToProperty").
		First(&proposal, id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetSentByUser retrieves proposals the user made, newest first
func (r *proposalRepository) GetSentByUser(userID uint, offset, limit int) ([]models.SwapProposal, error) {
	var proposals []models.SwapProposal
	err := r.db.Preload("FromProperty").Preload("ToProperty").
		Where("from_user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&proposals).Error
	return proposals, err
}

// GetReceivedByUser retrieves proposals made against the user's listings
func (r *proposalRepository) GetReceivedByUser(userID uint, offset, limit int) ([]models.SwapProposal, error) {
	var proposals []models.SwapProposal
	err := r.db.Preload("FromProperty").Preload("ToProperty").
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&proposals).Error
	return proposals, err
}

// GetOpenBetween returns the pending proposal for a listing pair, if any
func (r *proposalRepository) GetOpenBetween(fromPropertyID, toPropertyID uint) (*models.SwapProposal, error) {
	var proposal models.SwapProposal
	err := r.db.Where("from_property_id = ? AND to_property_id = ? AND status = ?",
		fromPropertyID, toPropertyID, models.ProposalStatusPending).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// CountOpenReceived counts pending proposals awaiting the user's response
func (r *proposalRepository) CountOpenReceived(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SwapProposal{}).
		Where("to_user_id = ? AND status = ?", userID, models.ProposalStatusPending).
		Count(&count).Error
	return count, err
}

// Update saves proposal state changes
func (r *proposalRepository) Update(proposal *models.SwapProposal) error {
	return r.db.Save(proposal).Error
}

// GetDailyStats returns daily proposal creation statistics for a date range
func (r *proposalRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	return dailyCounts(r.db.Model(&models.SwapProposal{}), startDate, endDate)
}
