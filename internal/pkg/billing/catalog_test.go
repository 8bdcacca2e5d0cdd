package billing

import "testing"

func TestPlanByID(t *testing.T) {
	tests := []struct {
		in     string
		wantID string
		wantOK bool
	}{
		{in: "free", wantID: PlanFree, wantOK: true},
		{in: "basico", wantID: PlanBasico, wantOK: true},
		{in: "PREMIUM", wantID: PlanPremium, wantOK: true},
		{in: "  premium_anual ", wantID: PlanPremiumAnual, wantOK: true},
		{in: "enterprise", wantOK: false},
		{in: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := PlanByID(tt.in)
		if ok != tt.wantOK {
			t.Fatalf("PlanByID(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
		if ok && got.ID != tt.wantID {
			t.Fatalf("PlanByID(%q) = %q, want %q", tt.in, got.ID, tt.wantID)
		}
	}
}

func TestCycleDays(t *testing.T) {
	monthly, _ := PlanByID(PlanBasico)
	if monthly.CycleDays() != 30 {
		t.Fatalf("monthly cycle = %d days, want 30", monthly.CycleDays())
	}
	yearly, _ := PlanByID(PlanPremiumAnual)
	if yearly.CycleDays() != 365 {
		t.Fatalf("yearly cycle = %d days, want 365", yearly.CycleDays())
	}
}

func TestFreePlan(t *testing.T) {
	p := FreePlan()
	if !p.IsFree() {
		t.Fatalf("free plan price = %v, want 0", p.Price)
	}
	if p.MaxListings < 1 {
		t.Fatalf("free plan must allow at least one listing, got %d", p.MaxListings)
	}
}
