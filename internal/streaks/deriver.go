// Package streaks derives behavioral continuity from day-closed facts.
// StreakState is never assigned directly: the only write path is the fold
// implemented here, and replaying the same facts produces the same state.
package streaks

import (
	"context"
	"fmt"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

// SubscriberName identifies the deriver on the event bus.
const SubscriberName = "streak-derive"

// Deriver folds DayClosed events into per-owner streak state.
type Deriver struct {
	store storage.Storage
}

// NewDeriver creates a streak deriver
func NewDeriver(store storage.Storage) *Deriver {
	return &Deriver{store: store}
}

// Name implements events.Handler
func (d *Deriver) Name() string { return SubscriberName }

// Handle implements events.Handler. Events for dates at or before the
// last evaluated date are skipped, which makes redelivery harmless; the
// per-owner FIFO guarantee of the bus keeps dates strictly increasing.
func (d *Deriver) Handle(ctx context.Context, event *events.DomainEvent) error {
	if event.Type != events.EventTypeDayClosed {
		return nil
	}

	data, err := event.GetDayClosedData()
	if err != nil {
		return fmt.Errorf("malformed day close: %w", err)
	}
	closedDate, err := types.ParseDate(data.Date)
	if err != nil {
		return fmt.Errorf("malformed close date %q: %w", data.Date, err)
	}

	state, err := d.store.GetStreakState(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load streak state: %w", err)
	}
	if state == nil {
		state = &types.StreakState{OwnerID: event.OwnerID}
	}

	if !state.LastEvaluatedDate.IsZero() && !closedDate.After(state.LastEvaluatedDate) {
		return nil
	}

	fold(state, closedDate, data.CompletionRatio)

	if err := d.store.SaveStreakState(ctx, state); err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}
	return nil
}

// fold applies one closed day to the state. A perfect day that is the
// first evaluation or exactly one day after the last keeps the run going;
// an imperfect day or a gap breaks it.
func fold(state *types.StreakState, closedDate types.Date, ratio float64) {
	first := state.LastEvaluatedDate.IsZero()
	consecutive := !first && closedDate.DaysSince(state.LastEvaluatedDate) == 1

	if ratio == 1.0 && (first || consecutive) {
		state.CurrentStreak++
		if state.CurrentStreak > state.LongestStreak {
			state.LongestStreak = state.CurrentStreak
		}
	} else {
		state.CurrentStreak = 0
	}

	state.LastEvaluatedDate = closedDate
}
