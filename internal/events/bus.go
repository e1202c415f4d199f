package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Bus is the in-process publish/subscribe mechanism. Subscribers are held
// in an explicit registry mapping event type to an ordered handler list,
// built at process startup and frozen on first publish. No runtime
// discovery, no reflection.
//
// Delivery is synchronous within the triggering operation: a subscriber
// failure is observable to the caller. Failures are isolated per
// subscriber; one handler's error never prevents delivery to the rest.
// A per-owner mutex keeps concurrent subscriber runs for one owner from
// interleaving. It does not by itself order delivery against commits;
// publishers that need delivery order to match commit order hold their
// own owner-level lock across both, as the planning engine does.
type Bus struct {
	mu       sync.Mutex
	registry map[EventType][]Handler
	frozen   bool

	ownerLocks sync.Map // ownerID -> *sync.Mutex
}

// NewBus creates an empty bus. Register subscribers with Subscribe before
// the first Publish; the registry is immutable afterwards.
func NewBus() *Bus {
	return &Bus{registry: make(map[EventType][]Handler)}
}

// Subscribe appends handler to the ordered list for eventType.
// Returns an error once the bus is frozen.
func (b *Bus) Subscribe(eventType EventType, handler Handler) error {
	if !eventType.IsValid() {
		return fmt.Errorf("invalid event type: %s", eventType)
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return fmt.Errorf("bus is frozen: subscribers must be registered at startup")
	}
	b.registry[eventType] = append(b.registry[eventType], handler)
	return nil
}

// SubscriberCount returns the number of handlers registered for eventType.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.registry[eventType])
}

// Publish delivers event to every handler registered for its type, in
// registration order. The first publish freezes the registry.
//
// All handlers run even when earlier ones fail; their errors are joined
// and returned so the caller can surface subscriber trouble without the
// domain mutation itself being rolled back (the mutation and the event
// append commit together before Publish is called).
func (b *Bus) Publish(ctx context.Context, event *DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if !event.Type.IsValid() {
		return fmt.Errorf("invalid event type: %s", event.Type)
	}
	if event.OwnerID == "" {
		return fmt.Errorf("event owner_id is required")
	}

	b.mu.Lock()
	b.frozen = true
	handlers := b.registry[event.Type]
	b.mu.Unlock()

	// Serialize delivery per owner so concurrent operations for the same
	// owner cannot interleave their subscriber runs.
	lock := b.ownerLock(event.OwnerID)
	lock.Lock()
	defer lock.Unlock()

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %s: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) ownerLock(ownerID string) *sync.Mutex {
	actual, _ := b.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
