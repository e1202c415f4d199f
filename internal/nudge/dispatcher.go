// Package nudge reacts to domain facts with ephemeral suggestions. Rules
// are read-only over domain state; the dispatcher is the only writer of
// Nudge records, and deleting every nudge leaves domain truth untouched.
package nudge

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

// SubscriberName identifies the dispatcher on the event bus.
const SubscriberName = "nudge-dispatch"

// Rule inspects a fact and may suggest a nudge. Implementations must not
// mutate domain state; they see the store for reads only.
type Rule interface {
	// Name identifies the rule in logs
	Name() string

	// Supports reports whether the rule wants to see this event type
	Supports(eventType events.EventType) bool

	// Evaluate returns a nudge to persist, or nil for no suggestion.
	// Returning nil is a valid outcome, not an error.
	Evaluate(ctx context.Context, event *events.DomainEvent, store storage.Storage) (*types.Nudge, error)
}

// Dispatcher runs an ordered, fixed set of rules against each event.
// Rules are independent: one rule's failure or suggestion never affects
// another's. Nudge creation is throttled per owner.
type Dispatcher struct {
	store    storage.Storage
	rules    []Rule
	limit    rate.Limit
	burst    int
	limiters sync.Map // ownerID -> *rate.Limiter
	warnf    func(format string, args ...interface{})
}

// NewDispatcher creates a dispatcher over the given rules. The rule slice
// is fixed at construction; perOwnerPerHour caps nudge creation per owner.
func NewDispatcher(store storage.Storage, rules []Rule, perOwnerPerHour int) *Dispatcher {
	if perOwnerPerHour < 1 {
		perOwnerPerHour = 4
	}
	return &Dispatcher{
		store: store,
		rules: rules,
		limit: rate.Every(time.Hour / time.Duration(perOwnerPerHour)),
		burst: perOwnerPerHour,
		warnf: log.Printf,
	}
}

// Name implements events.Handler
func (d *Dispatcher) Name() string { return SubscriberName }

// Handle implements events.Handler
func (d *Dispatcher) Handle(ctx context.Context, event *events.DomainEvent) error {
	for _, rule := range d.rules {
		if !rule.Supports(event.Type) {
			continue
		}

		nudge, err := rule.Evaluate(ctx, event, d.store)
		if err != nil {
			d.warnf("nudge rule %s failed on %s: %v", rule.Name(), event.Type, err)
			continue
		}
		if nudge == nil {
			continue
		}

		if !d.limiter(event.OwnerID).Allow() {
			d.warnf("nudge for %s throttled (rule %s)", event.OwnerID, rule.Name())
			continue
		}

		if err := d.persist(ctx, event.OwnerID, nudge); err != nil {
			d.warnf("failed to persist nudge from rule %s: %v", rule.Name(), err)
		}
	}
	return nil
}

func (d *Dispatcher) persist(ctx context.Context, ownerID string, nudge *types.Nudge) error {
	if nudge.ID == "" {
		nudge.ID = uuid.New().String()
	}
	nudge.OwnerID = ownerID
	nudge.Status = types.NudgePending

	if err := d.store.CreateNudge(ctx, nudge); err != nil {
		return fmt.Errorf("failed to create nudge: %w", err)
	}
	return nil
}

func (d *Dispatcher) limiter(ownerID string) *rate.Limiter {
	if l, ok := d.limiters.Load(ownerID); ok {
		return l.(*rate.Limiter)
	}
	l, _ := d.limiters.LoadOrStore(ownerID, rate.NewLimiter(d.limit, d.burst))
	return l.(*rate.Limiter)
}
