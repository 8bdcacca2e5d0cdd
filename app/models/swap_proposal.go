package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProposalStatusPending   = "pending"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// SwapProposal is an offer from one user to swap their listing against
// another user's listing. Only one pending proposal may exist per listing
// pair and direction.
type SwapProposal struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	FromUserID       uint     `gorm:"not null;index" json:"from_user_id"`
	ToUserID         uint     `gorm:"not null;index" json:"to_user_id"`
	FromPropertyID   uint     `gorm:"not null;index:ux_swap_proposals_pair,unique,priority:1" json:"from_property_id"`
	ToPropertyID     uint     `gorm:"not null;index:ux_swap_proposals_pair,unique,priority:2" json:"to_property_id"`
	FromProperty     Property `gorm:"foreignKey:FromPropertyID" json:"from_property,omitempty"`
	ToProperty       Property `gorm:"foreignKey:ToPropertyID" json:"to_property,omitempty"`
	Message          string   `gorm:"type:text" json:"message"`
	Status           string   `gorm:"type:varchar(32);not null;default:'pending';index:ux_swap_proposals_pair,unique,priority:3" json:"status"`
	RespondedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"responded_at,omitempty"`
	ResponseMessage  string         `gorm:"type:text" json:"response_message"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsOpen reports whether the proposal still awaits a response.
func (p *SwapProposal) IsOpen() bool {
	return p.Status == ProposalStatusPending
}

// CanRespond reports whether the given user may accept or reject the proposal.
func (p *SwapProposal) CanRespond(userID uint) bool {
	return p.IsOpen() && p.ToUserID == userID
}
