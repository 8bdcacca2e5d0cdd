package billing

import (
	"math"
	"testing"
)

func TestProRateBasicoToPremium(t *testing.T) {
	from, _ := PlanByID(PlanBasico)
	to, _ := PlanByID(PlanPremium)

	// 10 unused days of 29.90/30 credit 9.9666..., due 39.9333...
	got := Round2(ProRate(from, to, 10))
	if got != 39.93 {
		t.Fatalf("ProRate(basico, premium, 10) = %v, want 39.93", got)
	}
}

func TestProRateFullCycleRemaining(t *testing.T) {
	from, _ := PlanByID(PlanBasico)
	to, _ := PlanByID(PlanPremium)

	// A full untouched cycle credits the whole old price.
	got := ProRate(from, to, 30)
	want := to.Price - from.Price
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("ProRate(basico, premium, 30) = %v, want %v", got, want)
	}
}

func TestProRateNoDaysRemaining(t *testing.T) {
	from, _ := PlanByID(PlanBasico)
	to, _ := PlanByID(PlanPremium)

	if got := ProRate(from, to, 0); got != to.Price {
		t.Fatalf("ProRate(basico, premium, 0) = %v, want full price %v", got, to.Price)
	}
}

func TestProRateNeverNegative(t *testing.T) {
	from, _ := PlanByID(PlanPremium)
	to, _ := PlanByID(PlanBasico)

	for days := 0; days <= 30; days++ {
		if got := ProRate(from, to, days); got < 0 {
			t.Fatalf("ProRate(premium, basico, %d) = %v, want >= 0", days, got)
		}
	}
}

func TestProRateMonotonicInDaysRemaining(t *testing.T) {
	from, _ := PlanByID(PlanBasico)
	to, _ := PlanByID(PlanPremium)

	prev := math.Inf(1)
	for days := 0; days <= 30; days++ {
		got := ProRate(from, to, days)
		if got > prev {
			t.Fatalf("amount due rose from %v to %v at %d days remaining", prev, got, days)
		}
		prev = got
	}
}

func TestProRateClampsDays(t *testing.T) {
	from, _ := PlanByID(PlanBasico)
	to, _ := PlanByID(PlanPremium)

	if got, want := ProRate(from, to, -5), ProRate(from, to, 0); got != want {
		t.Fatalf("negative days = %v, want clamp to %v", got, want)
	}
	if got, want := ProRate(from, to, 90), ProRate(from, to, 30); got != want {
		t.Fatalf("excess days = %v, want clamp to %v", got, want)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 39.9333333, want: 39.93},
		{in: 39.936, want: 39.94},
		{in: 0, want: 0},
		{in: 49.90, want: 49.90},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Fatalf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
