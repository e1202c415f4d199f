// Package planning implements the write side of the engine: materializing
// daily plans from weekly intent, recording task completions, and closing
// days into immutable history. Every mutation commits its entity change and
// its domain event in one transaction, then delivers the event to
// subscribers synchronously.
package planning

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dayfold/dayfold/internal/clock"
	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

// Engine coordinates all daily and weekly plan mutations. It is the only
// writer of DailyPlan.Closed.
type Engine struct {
	store storage.Storage
	bus   *events.Bus
	clock clock.Clock
	locks *dayLocks
}

// NewEngine creates a planning engine
func NewEngine(store storage.Storage, bus *events.Bus, clk clock.Clock) *Engine {
	return &Engine{
		store: store,
		bus:   bus,
		clock: clk,
		locks: newDayLocks(),
	}
}

// MaterializeDay creates the daily plan for an owner's date from the
// covering weekly plan, with every entry pending. If a plan already exists
// it is returned unchanged. Past dates with no plan are gone for good:
// history cannot be backfilled.
func (e *Engine) MaterializeDay(ctx context.Context, ownerID string, date types.Date) (*types.DailyPlan, error) {
	unlock := e.locks.lock(ownerID, date)
	defer unlock()

	existing, err := e.store.FindDailyPlan(ctx, ownerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to look up daily plan: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if date.Before(e.clock.Today()) {
		return nil, types.TemporalViolationf("cannot materialize past date %s", date)
	}

	var taskIDs []string
	weekly, err := e.store.FindWeeklyPlan(ctx, ownerID, date.WeekStart())
	if err != nil {
		return nil, fmt.Errorf("failed to look up weekly plan: %w", err)
	}
	if weekly != nil {
		taskIDs = weekly.TasksFor(date)
	}

	plan := &types.DailyPlan{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Date:    date,
		Entries: make([]types.PlanEntry, 0, len(taskIDs)),
	}
	for _, taskID := range taskIDs {
		plan.Entries = append(plan.Entries, types.PlanEntry{
			TaskID: taskID,
			Status: types.EntryPending,
		})
	}

	// Materialization is structural, not historical: no event is recorded.
	if err := e.store.SaveDailyPlan(ctx, plan, nil); err != nil {
		return nil, fmt.Errorf("failed to save daily plan: %w", err)
	}

	return plan, nil
}

// CompleteTask marks a task's entry completed on an open daily plan and
// records a TaskCompleted event. Completing an already-completed entry is a
// no-op and emits nothing.
func (e *Engine) CompleteTask(ctx context.Context, dailyPlanID, taskID string) error {
	plan, err := e.store.GetDailyPlan(ctx, dailyPlanID)
	if err != nil {
		return fmt.Errorf("failed to get daily plan: %w", err)
	}
	if plan == nil {
		return types.NotFoundf("daily plan %s", dailyPlanID)
	}

	unlock := e.locks.lock(plan.OwnerID, plan.Date)
	defer unlock()

	// Re-read under the lock; the first read raced with other mutators.
	plan, err = e.store.GetDailyPlan(ctx, dailyPlanID)
	if err != nil {
		return fmt.Errorf("failed to get daily plan: %w", err)
	}
	if plan == nil {
		return types.NotFoundf("daily plan %s", dailyPlanID)
	}
	if plan.Closed {
		return types.DomainViolationf("daily plan %s for %s is closed", plan.ID, plan.Date)
	}

	entry := plan.Entry(taskID)
	if entry == nil {
		return types.NotFoundf("task %s is not on plan %s", taskID, dailyPlanID)
	}
	if entry.Status == types.EntryCompleted {
		return nil
	}

	now := e.clock.Now()
	entry.Status = types.EntryCompleted
	entry.CompletedAt = &now

	event, err := events.NewTaskCompletedEvent(plan.OwnerID, now, events.TaskCompletedData{
		TaskID:      taskID,
		DailyPlanID: plan.ID,
		Date:        plan.Date.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	// The owner lock spans commit and delivery so subscribers observe
	// this owner's events in commit order.
	release := e.locks.lockOwner(plan.OwnerID)
	defer release()

	if err := e.store.SaveDailyPlan(ctx, plan, event); err != nil {
		return fmt.Errorf("failed to save completion: %w", err)
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("completion recorded, delivery failed: %w", err)
	}
	return nil
}

// CloseDay seals a daily plan, computing its completion ratio and
// recording a DayClosed event. Closing an already-closed plan is a no-op;
// the event is emitted exactly once per day.
func (e *Engine) CloseDay(ctx context.Context, dailyPlanID string) error {
	plan, err := e.store.GetDailyPlan(ctx, dailyPlanID)
	if err != nil {
		return fmt.Errorf("failed to get daily plan: %w", err)
	}
	if plan == nil {
		return types.NotFoundf("daily plan %s", dailyPlanID)
	}

	unlock := e.locks.lock(plan.OwnerID, plan.Date)
	defer unlock()

	plan, err = e.store.GetDailyPlan(ctx, dailyPlanID)
	if err != nil {
		return fmt.Errorf("failed to get daily plan: %w", err)
	}
	if plan == nil {
		return types.NotFoundf("daily plan %s", dailyPlanID)
	}
	if plan.Closed {
		return nil
	}

	now := e.clock.Now()
	ratio := plan.CompletionRatio()
	plan.Closed = true
	plan.ClosedAt = &now

	event, err := events.NewDayClosedEvent(plan.OwnerID, now, events.DayClosedData{
		DailyPlanID:     plan.ID,
		Date:            plan.Date.String(),
		CompletionRatio: ratio,
		EntryCount:      len(plan.Entries),
	})
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	release := e.locks.lockOwner(plan.OwnerID)
	defer release()

	if err := e.store.SaveDailyPlan(ctx, plan, event); err != nil {
		return fmt.Errorf("failed to close daily plan: %w", err)
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("day closed, delivery failed: %w", err)
	}
	return nil
}

// ApplyWeeklyPlanUpdate persists a weekly plan and materializes any
// not-yet-materialized current or future days of that week that now have
// tasks. Closed days are never touched; past days are never backfilled.
// Returns the number of days materialized by the reconciliation.
func (e *Engine) ApplyWeeklyPlanUpdate(ctx context.Context, weekly *types.WeeklyPlan) (int, error) {
	if weekly.ID == "" {
		// An update for a week that already has a stored plan must keep
		// the stored identity; the upsert keys on (owner, week start).
		existing, err := e.store.FindWeeklyPlan(ctx, weekly.OwnerID, weekly.WeekStart)
		if err != nil {
			return 0, fmt.Errorf("failed to look up weekly plan: %w", err)
		}
		if existing != nil {
			weekly.ID = existing.ID
		} else {
			weekly.ID = uuid.New().String()
		}
	}
	if err := weekly.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	today := e.clock.Today()
	toMaterialize, err := e.reconcilable(ctx, weekly, today)
	if err != nil {
		return 0, err
	}

	event, err := events.NewWeeklyPlanUpdatedEvent(weekly.OwnerID, e.clock.Now(), events.WeeklyPlanUpdatedData{
		WeeklyPlanID:   weekly.ID,
		WeekStart:      weekly.WeekStart.String(),
		DaysReconciled: len(toMaterialize),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to build event: %w", err)
	}

	// Commit and delivery happen under the owner lock; materialization
	// follows outside it because MaterializeDay takes day locks and day
	// locks are always ordered before the owner lock.
	release := e.locks.lockOwner(weekly.OwnerID)
	if err := e.store.SaveWeeklyPlan(ctx, weekly, event); err != nil {
		release()
		return 0, fmt.Errorf("failed to save weekly plan: %w", err)
	}
	pubErr := e.bus.Publish(ctx, event)
	release()

	for _, date := range toMaterialize {
		if _, err := e.MaterializeDay(ctx, weekly.OwnerID, date); err != nil {
			return 0, fmt.Errorf("failed to materialize %s: %w", date, err)
		}
	}

	if pubErr != nil {
		return len(toMaterialize), fmt.Errorf("plan saved, delivery failed: %w", pubErr)
	}
	return len(toMaterialize), nil
}

// reconcilable lists the week's dates that materialization may create:
// today or later, carrying tasks, and not already materialized. A failed
// lookup fails the whole update; the caller retries rather than guessing.
func (e *Engine) reconcilable(ctx context.Context, weekly *types.WeeklyPlan, today types.Date) ([]types.Date, error) {
	var dates []types.Date
	for offset := 0; offset < 7; offset++ {
		date := weekly.WeekStart.AddDays(offset)
		if date.Before(today) {
			continue
		}
		if len(weekly.TasksFor(date)) == 0 {
			continue
		}
		existing, err := e.store.FindDailyPlan(ctx, weekly.OwnerID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to look up daily plan for %s: %w", date, err)
		}
		if existing != nil {
			continue
		}
		dates = append(dates, date)
	}
	return dates, nil
}
