package entitlements

import (
	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/billing"
)

// Limits are the plan-derived allowances enforced on listing creation and
// photo upload.
type Limits struct {
	MaxListings int
	MaxPhotos   int
	CanFeature  bool
}

// ForPlan resolves the allowances of a plan id. Unknown ids fall back to the
// free plan so a stale user_settings row can never grant more than free.
func ForPlan(planID string) Limits {
	plan, ok := billing.PlanByID(planID)
	if !ok {
		plan = billing.FreePlan()
	}
	return Limits{
		MaxListings: plan.MaxListings,
		MaxPhotos:   plan.MaxPhotos,
		CanFeature:  plan.Featured,
	}
}

// ForUser resolves allowances from the user's settings row.
func ForUser(us *models.UserSettings) Limits {
	if us == nil {
		return ForPlan(billing.PlanFree)
	}
	return ForPlan(us.Plan)
}

// CanPublishListing combines the plan allowance with the admin-side upload
// toggle. activeListings is the user's current count of non-removed listings.
func CanPublishListing(us *models.UserSettings, app *models.AppSettings, activeListings int) bool {
	if !app.IsListingUploadEnabled() {
		return false
	}
	return activeListings < ForUser(us).MaxListings
}

// CanAddPhoto reports whether one more photo fits the listing's plan limit.
func CanAddPhoto(us *models.UserSettings, currentPhotos int) bool {
	return currentPhotos < ForUser(us).MaxPhotos
}
