package goals

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

func newTestEvaluator(t *testing.T) (*Evaluator, storage.Storage) {
	t.Helper()
	store, err := storage.NewStorage(context.Background(), &storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewEvaluator(store, 2), store
}

func seedGoal(t *testing.T, store storage.Storage, krType types.KeyResultType, current, target float64) *types.Goal {
	t.Helper()
	goal := &types.Goal{
		ID:        "g-" + string(krType),
		OwnerID:   "alice",
		Title:     "Test goal",
		Horizon:   types.HorizonQuarter,
		Status:    types.GoalActive,
		StartDate: types.NewDate(2025, time.January, 1),
		EndDate:   types.NewDate(2025, time.March, 31),
		KeyResults: []types.KeyResult{
			{
				ID:           "kr-" + string(krType),
				GoalID:       "g-" + string(krType),
				Title:        "Key result",
				Type:         krType,
				TargetValue:  target,
				CurrentValue: current,
				Increment:    1,
				Weight:       1,
			},
		},
	}
	require.NoError(t, store.CreateGoal(context.Background(), goal))

	task := &types.Task{
		ID:          "t-" + string(krType),
		OwnerID:     "alice",
		Title:       "Linked task",
		KeyResultID: "kr-" + string(krType),
	}
	require.NoError(t, store.CreateTask(context.Background(), task))
	return goal
}

func taskCompleted(t *testing.T, taskID string) *events.DomainEvent {
	t.Helper()
	event, err := events.NewTaskCompletedEvent("alice", time.Now(), events.TaskCompletedData{
		TaskID:      taskID,
		DailyPlanID: "dp-1",
		Date:        "2025-03-12",
	})
	require.NoError(t, err)
	return event
}

func dayClosed(t *testing.T, ratio float64) *events.DomainEvent {
	t.Helper()
	event, err := events.NewDayClosedEvent("alice", time.Now(), events.DayClosedData{
		DailyPlanID:     "dp-1",
		Date:            "2025-03-12",
		CompletionRatio: ratio,
		EntryCount:      1,
	})
	require.NoError(t, err)
	return event
}

func TestAccumulativeEvaluation(t *testing.T) {
	eval, store := newTestEvaluator(t)
	ctx := context.Background()
	seedGoal(t, store, types.KRAccumulative, 3, 10)

	event := taskCompleted(t, "t-accumulative")
	require.NoError(t, eval.Handle(ctx, event))

	kr, err := store.GetKeyResult(ctx, "kr-accumulative")
	require.NoError(t, err)
	assert.Equal(t, 4.0, kr.CurrentValue)

	t.Run("RedeliveryIsIdempotent", func(t *testing.T) {
		require.NoError(t, eval.Handle(ctx, event))
		kr, err := store.GetKeyResult(ctx, "kr-accumulative")
		require.NoError(t, err)
		assert.Equal(t, 4.0, kr.CurrentValue)
	})

	t.Run("CappedAtTarget", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-accumulative")))
		}
		kr, err := store.GetKeyResult(ctx, "kr-accumulative")
		require.NoError(t, err)
		assert.Equal(t, 10.0, kr.CurrentValue)
	})
}

func TestHabitEvaluation(t *testing.T) {
	eval, store := newTestEvaluator(t)
	ctx := context.Background()
	seedGoal(t, store, types.KRHabit, 0, 1)

	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-habit")))

	kr, err := store.GetKeyResult(ctx, "kr-habit")
	require.NoError(t, err)
	assert.Equal(t, 1.0, kr.CurrentValue)

	// A second completion in the same period keeps the flag at 1.
	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-habit")))
	kr, err = store.GetKeyResult(ctx, "kr-habit")
	require.NoError(t, err)
	assert.Equal(t, 1.0, kr.CurrentValue)
}

func TestMilestoneEvaluation(t *testing.T) {
	eval, store := newTestEvaluator(t)
	ctx := context.Background()
	seedGoal(t, store, types.KRMilestone, 0, 100)

	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-milestone")))

	kr, err := store.GetKeyResult(ctx, "kr-milestone")
	require.NoError(t, err)
	assert.Equal(t, 100.0, kr.CurrentValue)
}

func TestUnlinkedTaskIsIgnored(t *testing.T) {
	eval, store := newTestEvaluator(t)
	ctx := context.Background()

	task := &types.Task{ID: "t-free", OwnerID: "alice", Title: "Unlinked"}
	require.NoError(t, store.CreateTask(ctx, task))

	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-free")))
	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-unknown")))
}

func TestDayClosedSnapshots(t *testing.T) {
	eval, store := newTestEvaluator(t)
	ctx := context.Background()
	seedGoal(t, store, types.KRAccumulative, 3, 10)

	// One completion, then the close that snapshots it.
	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-accumulative")))
	require.NoError(t, eval.Handle(ctx, dayClosed(t, 1.0)))

	date := types.NewDate(2025, time.March, 12)
	snap, err := store.GetGoalSnapshot(ctx, "g-accumulative", date)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.InDelta(t, 0.4, snap.Progress, 1e-9)
	assert.Equal(t, 4.0, snap.KeyResultValues["kr-accumulative"])

	t.Run("SnapshotIsImmutable", func(t *testing.T) {
		// Even if a close event were replayed after further progress,
		// the existing snapshot stays frozen.
		require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-accumulative")))
		require.NoError(t, eval.Handle(ctx, dayClosed(t, 1.0)))

		again, err := store.GetGoalSnapshot(ctx, "g-accumulative", date)
		require.NoError(t, err)
		assert.InDelta(t, 0.4, again.Progress, 1e-9)
		assert.Equal(t, 4.0, again.KeyResultValues["kr-accumulative"])
	})

	t.Run("OnlyActiveGoalsSnapshotted", func(t *testing.T) {
		require.NoError(t, store.UpdateGoalStatus(ctx, "g-accumulative", types.GoalCompleted, nil))
		event, err := events.NewDayClosedEvent("alice", time.Now(), events.DayClosedData{
			DailyPlanID: "dp-2", Date: "2025-03-13", CompletionRatio: 1.0, EntryCount: 1,
		})
		require.NoError(t, err)
		require.NoError(t, eval.Handle(ctx, event))

		snap, err := store.GetGoalSnapshot(ctx, "g-accumulative", types.NewDate(2025, time.March, 13))
		require.NoError(t, err)
		assert.Nil(t, snap)
	})
}

func TestGoalFailureIsolation(t *testing.T) {
	eval, store := newTestEvaluator(t)
	ctx := context.Background()
	seedGoal(t, store, types.KRAccumulative, 3, 10)

	var warnings []string
	eval.warnf = func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	// A task pointing at a key result that no longer exists warns and
	// moves on instead of failing the event.
	orphan := &types.Task{ID: "t-orphan", OwnerID: "alice", Title: "Orphan", KeyResultID: "kr-gone"}
	require.NoError(t, store.CreateTask(ctx, orphan))

	require.NoError(t, eval.Handle(ctx, taskCompleted(t, "t-orphan")))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "kr-gone")
}

// slowSnapshotStore signals when a snapshot write starts and counts the
// writes that have fully finished.
type slowSnapshotStore struct {
	storage.Storage
	started  chan struct{}
	finished atomic.Int32
}

func (s *slowSnapshotStore) CreateGoalSnapshot(ctx context.Context, snap *types.GoalSnapshot) (bool, error) {
	s.started <- struct{}{}
	time.Sleep(100 * time.Millisecond)
	created, err := s.Storage.CreateGoalSnapshot(ctx, snap)
	s.finished.Add(1)
	return created, err
}

func TestInterruptedFanOutDrainsInFlightSnapshots(t *testing.T) {
	base, err := storage.NewStorage(context.Background(), &storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })

	store := &slowSnapshotStore{Storage: base, started: make(chan struct{}, 2)}
	eval := NewEvaluator(store, 1)
	eval.warnf = func(string, ...interface{}) {}

	seedGoal(t, base, types.KRAccumulative, 0, 10)
	seedGoal(t, base, types.KRHabit, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	event := dayClosed(t, 1.0)
	errCh := make(chan error, 1)
	go func() { errCh <- eval.Handle(ctx, event) }()

	// The single permit is held by the first snapshot; cancelling now
	// makes the second acquire fail while the first is still in flight.
	<-store.started
	cancel()

	err = <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// By the time Handle returns, no snapshot write may still be running.
	assert.Equal(t, int32(1), store.finished.Load())
}
