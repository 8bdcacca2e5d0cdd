package apiv1

import "time"

// Pong is the /ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIError is the uniform v1 error envelope.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Account is the authenticated key owner's profile.
type Account struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing is the v1 representation of a property listing.
type Listing struct {
	UUID           string     `json:"uuid"`
	Title          string     `json:"title"`
	Type           string     `json:"type"`
	City           string     `json:"city"`
	UF             string     `json:"uf"`
	Neighborhood   string     `json:"neighborhood,omitempty"`
	AreaM2         float64    `json:"area_m2"`
	Rooms          int        `json:"rooms"`
	EstimatedValue float64    `json:"estimated_value"`
	Status         string     `json:"status"`
	ShareLink      string     `json:"share_link"`
	ViewCount      int        `json:"view_count"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListingPage is a paginated listing collection.
type ListingPage struct {
	Page     int       `json:"page"`
	Listings []Listing `json:"listings"`
}

// CreateListingRequest is the POST /listings body.
type CreateListingRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Type           string  `json:"type"`
	City           string  `json:"city"`
	UF             string  `json:"uf"`
	Neighborhood   string  `json:"neighborhood"`
	AreaM2         float64 `json:"area_m2"`
	Rooms          int     `json:"rooms"`
	EstimatedValue float64 `json:"estimated_value"`
	SwapPreference string  `json:"swap_preference"`
}

// PhotoStatus is the processing state of one photo.
type PhotoStatus struct {
	UUID     string `json:"uuid"`
	Status   string `json:"status"`
	Complete bool   `json:"complete"`
}

// SubscriptionStatus mirrors the billing resolver output.
type SubscriptionStatus struct {
	Status       string            `json:"status"`
	Subscription *SubscriptionInfo `json:"subscription,omitempty"`
}

// SubscriptionInfo is the active subscription detail.
type SubscriptionInfo struct {
	PlanID        string     `json:"plan_id"`
	PendingPlanID string     `json:"pending_plan_id,omitempty"`
	Price         float64    `json:"price"`
	Cycle         string     `json:"cycle"`
	NextDueDate   *time.Time `json:"next_due_date,omitempty"`
	AutoRenew     bool       `json:"auto_renew"`
}
