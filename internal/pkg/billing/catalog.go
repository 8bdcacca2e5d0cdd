package billing

import "strings"

// BillingCycle is the renewal period of a plan.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

const (
	PlanFree         = "free"
	PlanBasico       = "basico"
	PlanPremium      = "premium"
	PlanPremiumAnual = "premium_anual"
)

// Plan is one immutable catalog entry. Prices are BRL per billing cycle.
// The catalog is fixed in code; plan changes ship as releases, not as rows.
type Plan struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Price       float64      `json:"price"`
	Cycle       BillingCycle `json:"cycle"`
	MaxListings int          `json:"max_listings"`
	MaxPhotos   int          `json:"max_photos"`
	Featured    bool         `json:"featured"`
}

var catalog = []Plan{
	{ID: PlanFree, Name: "Gratuito", Price: 0, Cycle: CycleMonthly, MaxListings: 1, MaxPhotos: 5},
	{ID: PlanBasico, Name: "Básico", Price: 29.90, Cycle: CycleMonthly, MaxListings: 5, MaxPhotos: 10},
	{ID: PlanPremium, Name: "Premium", Price: 49.90, Cycle: CycleMonthly, MaxListings: 20, MaxPhotos: 20, Featured: true},
	{ID: PlanPremiumAnual, Name: "Premium Anual", Price: 499.00, Cycle: CycleYearly, MaxListings: 20, MaxPhotos: 20, Featured: true},
}

// Plans returns a copy of the catalog in display order.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// PlanByID resolves a catalog entry. The zero Plan and false are returned for
// unknown ids.
func PlanByID(id string) (Plan, bool) {
	norm := normalizePlanID(id)
	for _, p := range catalog {
		if p.ID == norm {
			return p, true
		}
	}
	return Plan{}, false
}

// FreePlan returns the implicit plan of users without a subscription.
func FreePlan() Plan {
	p, _ := PlanByID(PlanFree)
	return p
}

// CycleDays returns the fixed pro-ration cycle length for the plan.
// Monthly cycles are 30 days by definition, regardless of calendar month.
func (p Plan) CycleDays() int {
	if p.Cycle == CycleYearly {
		return 365
	}
	return 30
}

// IsFree reports whether the plan costs nothing.
func (p Plan) IsFree() bool {
	return p.Price == 0
}

func normalizePlanID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
