package billing

import (
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/trocalar/TrocaLar/app/models"
)

// MemoryRepository is an in-memory Repository used by tests and by dev
// tooling that runs without Postgres. It is selected explicitly at
// construction time; the GORM repository is never patched at runtime.
type MemoryRepository struct {
	mu            sync.Mutex
	nextSubID     uint
	nextPayID     uint
	nextEventID   uint
	subscriptions map[uint]*models.Subscription
	payments      map[string]*models.Payment
	events        map[string]*models.BillingWebhookEvent
}

// NewMemoryRepository creates an empty in-memory billing repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subscriptions: make(map[uint]*models.Subscription),
		payments:      make(map[string]*models.Payment),
		events:        make(map[string]*models.BillingWebhookEvent),
	}
}

func (r *MemoryRepository) ActiveSubscriptionByUser(userID uint) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []*models.Subscription
	for _, sub := range r.subscriptions {
		if sub.UserID == userID && sub.Status == models.SubscriptionStatusActive {
			candidates = append(candidates, sub)
		}
	}
	if len(candidates) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].StartedAt.After(candidates[j].StartedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (r *MemoryRepository) SubscriptionByExternalID(externalID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subscriptions {
		if sub.ExternalID == externalID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryRepository) CreateSubscription(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSubID++
	sub.ID = r.nextSubID
	if sub.StartedAt.IsZero() {
		sub.StartedAt = time.Now()
	}
	cp := *sub
	r.subscriptions[sub.ID] = &cp
	return nil
}

func (r *MemoryRepository) SaveSubscription(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.ID == 0 {
		return gorm.ErrRecordNotFound
	}
	cp := *sub
	r.subscriptions[sub.ID] = &cp
	return nil
}

func (r *MemoryRepository) PaymentByExternalID(externalID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.payments[externalID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryRepository) UpsertPayment(p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.payments[p.ExternalID]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		r.nextPayID++
		p.ID = r.nextPayID
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	cp := *p
	r.payments[p.ExternalID] = &cp
	return nil
}

func (r *MemoryRepository) ListPaymentsByUser(userID uint, offset, limit int) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.events[event.ProviderEventID]; ok {
		cp := *stored
		return false, &cp, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	event.CreatedAt = time.Now()
	cp := *event
	r.events[event.ProviderEventID] = &cp
	out := cp
	return true, &out, nil
}

func (r *MemoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range r.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// PaymentCount reports the number of stored payments; used by idempotency
// tests.
func (r *MemoryRepository) PaymentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

// SubscriptionByID returns a stored subscription by primary key; test helper.
func (r *MemoryRepository) SubscriptionByID(id uint) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.subscriptions[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
