package billing

import "testing"

func TestTranslateEvent(t *testing.T) {
	tests := []struct {
		event   string
		kind    EventKind
		payment PaymentStatus
		sub     SubscriptionStatus
	}{
		{event: "PAYMENT_CREATED", kind: EventKindPayment, payment: PayStatusCreated, sub: SubStatusUnknown},
		{event: "PAYMENT_RECEIVED", kind: EventKindPayment, payment: PayStatusPaid, sub: SubStatusUnknown},
		{event: "PAYMENT_CONFIRMED", kind: EventKindPayment, payment: PayStatusPaid, sub: SubStatusUnknown},
		{event: "PAYMENT_ANTICIPATED", kind: EventKindPayment, payment: PayStatusPaid, sub: SubStatusUnknown},
		{event: "PAYMENT_OVERDUE", kind: EventKindPayment, payment: PayStatusOverdue, sub: SubStatusUnknown},
		{event: "PAYMENT_REFUNDED", kind: EventKindPayment, payment: PayStatusRefunded, sub: SubStatusUnknown},
		{event: "PAYMENT_DELETED", kind: EventKindPayment, payment: PayStatusCanceled, sub: SubStatusUnknown},
		{event: "PAYMENT_UPDATED", kind: EventKindPayment, payment: PayStatusUpdated, sub: SubStatusUnknown},
		{event: "SUBSCRIPTION_CREATED", kind: EventKindSubscription, payment: PayStatusUnknown, sub: SubStatusActive},
		{event: "SUBSCRIPTION_UPDATED", kind: EventKindSubscription, payment: PayStatusUnknown, sub: SubStatusUpdated},
		{event: "SUBSCRIPTION_CANCELED", kind: EventKindSubscription, payment: PayStatusUnknown, sub: SubStatusCanceled},
		{event: "SUBSCRIPTION_EXPIRED", kind: EventKindSubscription, payment: PayStatusUnknown, sub: SubStatusExpired},

		// Unlisted members of a known family keep the family, nothing else.
		{event: "PAYMENT_CHARGEBACK_REQUESTED", kind: EventKindPayment, payment: PayStatusUnknown, sub: SubStatusUnknown},
		{event: "SUBSCRIPTION_SPLIT_DISABLED", kind: EventKindSubscription, payment: PayStatusUnknown, sub: SubStatusUnknown},

		{event: "TRANSFER_DONE", kind: EventKindUnknown, payment: PayStatusUnknown, sub: SubStatusUnknown},
		{event: "", kind: EventKindUnknown, payment: PayStatusUnknown, sub: SubStatusUnknown},

		// Matching is case and whitespace insensitive.
		{event: " payment_received ", kind: EventKindPayment, payment: PayStatusPaid, sub: SubStatusUnknown},
	}

	for _, tt := range tests {
		kind, payment, sub := TranslateEvent(tt.event)
		if kind != tt.kind || payment != tt.payment || sub != tt.sub {
			t.Fatalf("TranslateEvent(%q) = (%v, %q, %q), want (%v, %q, %q)",
				tt.event, kind, payment, sub, tt.kind, tt.payment, tt.sub)
		}
	}
}
