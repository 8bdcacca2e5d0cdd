package billing

import "errors"

// Sentinel errors of the billing core. Controllers translate these to HTTP
// codes; everything else surfaces as an internal error (500) with no local
// retry.
var (
	// ErrInvalidInput marks missing or malformed caller input (400).
	ErrInvalidInput = errors.New("billing: invalid input")

	// ErrPlanNotFound marks a plan id absent from the catalog (404).
	ErrPlanNotFound = errors.New("billing: plan not found")

	// ErrSamePlan marks a change request to the currently subscribed plan (409).
	ErrSamePlan = errors.New("billing: already subscribed to this plan")

	// ErrNoSubscription marks operations that need an active subscription (404).
	ErrNoSubscription = errors.New("billing: no active subscription")

	// ErrGateway wraps payment-provider failures (502/500, retried by caller).
	ErrGateway = errors.New("billing: payment gateway error")
)
