package entitlements

import (
	"testing"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/internal/pkg/billing"
)

func TestForPlanKnownPlans(t *testing.T) {
	tests := []struct {
		planID      string
		maxListings int
		maxPhotos   int
		canFeature  bool
	}{
		{billing.PlanFree, 1, 5, false},
		{billing.PlanBasico, 5, 10, false},
		{billing.PlanPremium, 20, 20, true},
		{billing.PlanPremiumAnual, 20, 20, true},
	}
	for _, tt := range tests {
		got := ForPlan(tt.planID)
		if got.MaxListings != tt.maxListings || got.MaxPhotos != tt.maxPhotos || got.CanFeature != tt.canFeature {
			t.Errorf("ForPlan(%q) = %+v, want {%d %d %v}", tt.planID, got, tt.maxListings, tt.maxPhotos, tt.canFeature)
		}
	}
}

func TestForPlanUnknownFallsBackToFree(t *testing.T) {
	got := ForPlan("enterprise")
	free := ForPlan(billing.PlanFree)
	if got != free {
		t.Fatalf("ForPlan(unknown) = %+v, want free limits %+v", got, free)
	}
}

func TestForUserNilSettings(t *testing.T) {
	got := ForUser(nil)
	if got != ForPlan(billing.PlanFree) {
		t.Fatalf("ForUser(nil) = %+v, want free limits", got)
	}
}

func TestCanPublishListing(t *testing.T) {
	app := &models.AppSettings{ListingUploadEnabled: true}
	us := &models.UserSettings{Plan: billing.PlanBasico}

	if !CanPublishListing(us, app, 4) {
		t.Fatalf("basico with 4 active listings must be allowed a 5th")
	}
	if CanPublishListing(us, app, 5) {
		t.Fatalf("basico with 5 active listings is at the limit")
	}
}

func TestCanPublishListingBlockedByAdminToggle(t *testing.T) {
	app := &models.AppSettings{ListingUploadEnabled: false}
	us := &models.UserSettings{Plan: billing.PlanPremium}

	if CanPublishListing(us, app, 0) {
		t.Fatalf("publishing must be blocked while uploads are disabled")
	}
}

func TestCanAddPhoto(t *testing.T) {
	us := &models.UserSettings{Plan: billing.PlanFree}

	if !CanAddPhoto(us, 4) {
		t.Fatalf("free plan allows up to 5 photos")
	}
	if CanAddPhoto(us, 5) {
		t.Fatalf("free plan with 5 photos is at the limit")
	}
}
