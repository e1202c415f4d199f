// Package goals turns completion facts into key-result progress and
// point-in-time goal snapshots. It is the only writer of KeyResult values
// and GoalSnapshots.
package goals

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

// SubscriberName identifies the evaluator in the processed-event ledger.
const SubscriberName = "goal-eval"

// DefaultMaxConcurrent bounds per-goal snapshot fan-out on day close.
const DefaultMaxConcurrent = 4

// Evaluator subscribes to TaskCompleted and DayClosed events.
type Evaluator struct {
	store storage.Storage
	sem   *semaphore.Weighted
	warnf func(format string, args ...interface{})
}

// NewEvaluator creates a goal evaluator. maxConcurrent bounds how many
// goals are snapshotted in parallel on a single day close.
func NewEvaluator(store storage.Storage, maxConcurrent int64) *Evaluator {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Evaluator{
		store: store,
		sem:   semaphore.NewWeighted(maxConcurrent),
		warnf: log.Printf,
	}
}

// Name implements events.Handler
func (e *Evaluator) Name() string { return SubscriberName }

// Handle implements events.Handler
func (e *Evaluator) Handle(ctx context.Context, event *events.DomainEvent) error {
	switch event.Type {
	case events.EventTypeTaskCompleted:
		return e.onTaskCompleted(ctx, event)
	case events.EventTypeDayClosed:
		return e.onDayClosed(ctx, event)
	default:
		return nil
	}
}

// onTaskCompleted advances the key result linked to the completed task.
// The advance is applied at most once per event ID, so redelivery is safe.
func (e *Evaluator) onTaskCompleted(ctx context.Context, event *events.DomainEvent) error {
	data, err := event.GetTaskCompletedData()
	if err != nil {
		return fmt.Errorf("malformed task completion: %w", err)
	}

	task, err := e.store.GetTask(ctx, data.TaskID)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", data.TaskID, err)
	}
	if task == nil || task.KeyResultID == "" {
		return nil
	}

	kr, err := e.store.GetKeyResult(ctx, task.KeyResultID)
	if err != nil {
		return fmt.Errorf("failed to load key result %s: %w", task.KeyResultID, err)
	}
	if kr == nil {
		e.warnf("task %s references missing key result %s", task.ID, task.KeyResultID)
		return nil
	}

	newValue := evaluate(kr)
	if _, err := e.store.ApplyKeyResultEvaluation(ctx, SubscriberName, event.ID, kr.ID, newValue); err != nil {
		return fmt.Errorf("failed to apply evaluation for %s: %w", kr.ID, err)
	}
	return nil
}

// evaluate computes the key result's next value for one qualifying
// completion, per its type.
func evaluate(kr *types.KeyResult) float64 {
	switch kr.Type {
	case types.KRAccumulative:
		next := kr.CurrentValue + kr.Increment
		if next > kr.TargetValue {
			next = kr.TargetValue
		}
		return next
	case types.KRHabit:
		// Satisfied flag for the current period; the reset happens at
		// the period boundary, not here.
		return 1
	case types.KRMilestone:
		return kr.TargetValue
	default:
		return kr.CurrentValue
	}
}

// onDayClosed writes one progress snapshot per active goal the owner
// holds. A failed goal only costs that goal its snapshot: the failure is
// logged and the rest proceed. Snapshots are write-once per (goal, date).
func (e *Evaluator) onDayClosed(ctx context.Context, event *events.DomainEvent) error {
	data, err := event.GetDayClosedData()
	if err != nil {
		return fmt.Errorf("malformed day close: %w", err)
	}

	date, err := types.ParseDate(data.Date)
	if err != nil {
		return fmt.Errorf("malformed close date %q: %w", data.Date, err)
	}

	goals, err := e.store.ListActiveGoals(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to list goals for %s: %w", event.OwnerID, err)
	}

	var wg sync.WaitGroup
	for _, goal := range goals {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			// Drain in-flight snapshots before reporting; a goroutine
			// still touching the store after Handle returns could race
			// the store's shutdown.
			wg.Wait()
			return fmt.Errorf("snapshot fan-out interrupted: %w", err)
		}
		wg.Add(1)
		go func(g *types.Goal) {
			defer wg.Done()
			defer e.sem.Release(1)
			if err := e.snapshot(ctx, g, date); err != nil {
				e.warnf("snapshot failed for goal %s on %s: %v", g.ID, date, err)
			}
		}(goal)
	}
	wg.Wait()

	return nil
}

func (e *Evaluator) snapshot(ctx context.Context, goal *types.Goal, date types.Date) error {
	values := make(map[string]float64, len(goal.KeyResults))
	for _, kr := range goal.KeyResults {
		values[kr.ID] = kr.CurrentValue
	}

	snap := &types.GoalSnapshot{
		GoalID:          goal.ID,
		OwnerID:         goal.OwnerID,
		Date:            date,
		Progress:        goal.Progress(),
		KeyResultValues: values,
	}

	if _, err := e.store.CreateGoalSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}
