package nudge

import (
	"context"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

// MissedDayRule will suggest a nudge when a day closes with nothing done.
// The messaging contract is still unsettled, so it currently suggests
// nothing; the dispatcher treats that as a valid outcome.
type MissedDayRule struct{}

// Name implements Rule
func (r *MissedDayRule) Name() string { return "missed-day" }

// Supports implements Rule
func (r *MissedDayRule) Supports(eventType events.EventType) bool {
	return eventType == events.EventTypeDayClosed
}

// Evaluate implements Rule
func (r *MissedDayRule) Evaluate(ctx context.Context, event *events.DomainEvent, store storage.Storage) (*types.Nudge, error) {
	return nil, nil
}

// StreakAtRiskRule will warn an owner whose streak is about to break. It
// reads StreakState only; like MissedDayRule it does not yet suggest
// anything.
type StreakAtRiskRule struct{}

// Name implements Rule
func (r *StreakAtRiskRule) Name() string { return "streak-at-risk" }

// Supports implements Rule
func (r *StreakAtRiskRule) Supports(eventType events.EventType) bool {
	return eventType == events.EventTypeDayClosed
}

// Evaluate implements Rule
func (r *StreakAtRiskRule) Evaluate(ctx context.Context, event *events.DomainEvent, store storage.Storage) (*types.Nudge, error) {
	return nil, nil
}

// DefaultRules returns the dispatcher's standard rule order
func DefaultRules() []Rule {
	return []Rule{
		&MissedDayRule{},
		&StreakAtRiskRule{},
	}
}
