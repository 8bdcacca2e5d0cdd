package billing

import "strings"

// TranslateEvent maps the gateway's event vocabulary to the internal status
// enums. It is the single translation point (anything the gateway adds later
// lands on the unknown values) and the table is fixed:
//
//	PAYMENT_CREATED                                   -> created
//	PAYMENT_RECEIVED / _CONFIRMED / _ANTICIPATED      -> paid
//	PAYMENT_OVERDUE                                   -> overdue
//	PAYMENT_REFUNDED                                  -> refunded
//	PAYMENT_DELETED                                   -> canceled
//	PAYMENT_UPDATED                                   -> updated
//	SUBSCRIPTION_CREATED                              -> active
//	SUBSCRIPTION_UPDATED                              -> updated
//	SUBSCRIPTION_CANCELED                             -> canceled
//	SUBSCRIPTION_EXPIRED                              -> expired
//	anything else                                     -> unknown
func TranslateEvent(event string) (EventKind, PaymentStatus, SubscriptionStatus) {
	ev := strings.ToUpper(strings.TrimSpace(event))

	switch ev {
	case "PAYMENT_CREATED":
		return EventKindPayment, PayStatusCreated, SubStatusUnknown
	case "PAYMENT_RECEIVED", "PAYMENT_CONFIRMED", "PAYMENT_ANTICIPATED":
		return EventKindPayment, PayStatusPaid, SubStatusUnknown
	case "PAYMENT_OVERDUE":
		return EventKindPayment, PayStatusOverdue, SubStatusUnknown
	case "PAYMENT_REFUNDED":
		return EventKindPayment, PayStatusRefunded, SubStatusUnknown
	case "PAYMENT_DELETED":
		return EventKindPayment, PayStatusCanceled, SubStatusUnknown
	case "PAYMENT_UPDATED":
		return EventKindPayment, PayStatusUpdated, SubStatusUnknown
	case "SUBSCRIPTION_CREATED":
		return EventKindSubscription, PayStatusUnknown, SubStatusActive
	case "SUBSCRIPTION_UPDATED":
		return EventKindSubscription, PayStatusUnknown, SubStatusUpdated
	case "SUBSCRIPTION_CANCELED":
		return EventKindSubscription, PayStatusUnknown, SubStatusCanceled
	case "SUBSCRIPTION_EXPIRED":
		return EventKindSubscription, PayStatusUnknown, SubStatusExpired
	}

	// Unlisted PAYMENT_*/SUBSCRIPTION_* events keep their kind so the
	// ingestor can ack and skip them without guessing a status.
	switch {
	case strings.HasPrefix(ev, "PAYMENT_"):
		return EventKindPayment, PayStatusUnknown, SubStatusUnknown
	case strings.HasPrefix(ev, "SUBSCRIPTION_"):
		return EventKindSubscription, PayStatusUnknown, SubStatusUnknown
	}
	return EventKindUnknown, PayStatusUnknown, SubStatusUnknown
}
