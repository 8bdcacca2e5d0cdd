package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithStats(offset, limit int) ([]UserWithStats, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// PropertyRepository defines the interface for listing-related operations
type PropertyRepository interface {
	Create(property *models.Property) error
	GetByID(id uint) (*models.Property, error)
	GetByUUID(uuid string) (*models.Property, error)
	GetByShareLink(shareLink string) (*models.Property, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Property, error)
	Update(property *models.Property) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Property, error)
	Count() (int64, error)
	CountActiveByUserID(userID uint) (int64, error)
	Search(filter PropertyFilter, offset, limit int) ([]models.Property, int64, error)
	GetRecentPublished(limit int) ([]models.Property, error)
	IncrementViewCount(id uint) error
	GetImages(propertyID uint) ([]models.PropertyImage, error)
	CountImages(propertyID uint) (int64, error)
	AddImage(image *models.PropertyImage) error
	GetImageByUUID(uuid string) (*models.PropertyImage, error)
	UpdateImage(image *models.PropertyImage) error
	DeleteImage(id uint) error
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// ProposalRepository defines the interface for swap proposal operations
type ProposalRepository interface {
	Create(proposal *models.SwapProposal) error
	GetByID(id uint) (*models.SwapProposal, error)
	GetSentByUser(userID uint, offset, limit int) ([]models.SwapProposal, error)
	GetReceivedByUser(userID uint, offset, limit int) ([]models.SwapProposal, error)
	GetOpenBetween(fromPropertyID, toPropertyID uint) (*models.SwapProposal, error)
	CountOpenReceived(userID uint) (int64, error)
	Update(proposal *models.SwapProposal) error
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// PaymentRepository defines the read side used by the admin panel. Writes go
// through the billing package exclusively.
type PaymentRepository interface {
	ListRecent(offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	SumPaidAmount(startDate, endDate time.Time) (float64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// PropertyFilter narrows public listing searches.
type PropertyFilter struct {
	Query string
	City  string
	UF    string
	Type  string
}

// UserWithStats represents a user with additional statistics
type UserWithStats struct {
	User          models.User
	ListingCount  int64
	ProposalCount int64
}

// UserStats provides aggregated counts for a single user.
type UserStats struct {
	ListingCount  int64
	ProposalCount int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Property PropertyRepository
	Proposal ProposalRepository
	Payment  PaymentRepository
	Setting  SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Property: NewPropertyRepository(db),
		Proposal: NewProposalRepository(db),
		Payment:  NewPaymentRepository(db),
		Setting:  NewSettingRepository(db),
	}
}
