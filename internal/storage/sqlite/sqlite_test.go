package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDailyPlanStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := types.NewDate(2025, time.March, 10)

	plan := &types.DailyPlan{
		ID:      "dp-1",
		OwnerID: "alice",
		Date:    date,
		Entries: []types.PlanEntry{
			{TaskID: "t1", Status: types.EntryPending},
			{TaskID: "t2", Status: types.EntryPending},
		},
	}

	t.Run("CreateAndFind", func(t *testing.T) {
		if err := store.SaveDailyPlan(ctx, plan, nil); err != nil {
			t.Fatalf("SaveDailyPlan: %v", err)
		}
		if plan.Version != 1 {
			t.Errorf("Version after create = %d, want 1", plan.Version)
		}

		found, err := store.FindDailyPlan(ctx, "alice", date)
		if err != nil {
			t.Fatalf("FindDailyPlan: %v", err)
		}
		if found == nil {
			t.Fatal("expected plan, got nil")
		}
		if found.ID != "dp-1" || len(found.Entries) != 2 {
			t.Errorf("found = %+v", found)
		}
		if found.Entries[0].TaskID != "t1" {
			t.Errorf("entry order not preserved: %+v", found.Entries)
		}
	})

	t.Run("MissingPlanIsNil", func(t *testing.T) {
		missing, err := store.GetDailyPlan(ctx, "dp-nope")
		if err != nil {
			t.Fatalf("GetDailyPlan: %v", err)
		}
		if missing != nil {
			t.Error("expected nil for missing plan")
		}
	})

	t.Run("UpdateWithEvent", func(t *testing.T) {
		now := time.Now()
		plan.Entries[0].Status = types.EntryCompleted
		plan.Entries[0].CompletedAt = &now

		event, err := events.NewTaskCompletedEvent("alice", now, events.TaskCompletedData{
			TaskID: "t1", DailyPlanID: "dp-1", Date: date.String(),
		})
		if err != nil {
			t.Fatalf("NewTaskCompletedEvent: %v", err)
		}

		if err := store.SaveDailyPlan(ctx, plan, event); err != nil {
			t.Fatalf("SaveDailyPlan with event: %v", err)
		}

		got, err := store.GetRecentEvents(ctx, "alice", 10)
		if err != nil {
			t.Fatalf("GetRecentEvents: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 event, got %d", len(got))
		}
		if got[0].Type != events.EventTypeTaskCompleted {
			t.Errorf("event type = %s", got[0].Type)
		}
	})

	t.Run("StaleVersionLosesCleanly", func(t *testing.T) {
		stale := *plan
		stale.Version = 1 // Current version is 2
		err := store.SaveDailyPlan(ctx, &stale, nil)
		if err == nil {
			t.Fatal("stale write should fail")
		}
		if !errors.Is(err, types.ErrTransientStore) {
			t.Errorf("stale write should be retryable, got %v", err)
		}
	})

	t.Run("ClosedRowCannotBeRewritten", func(t *testing.T) {
		now := time.Now()
		plan.Closed = true
		plan.ClosedAt = &now
		if err := store.SaveDailyPlan(ctx, plan, nil); err != nil {
			t.Fatalf("close save: %v", err)
		}

		// Any further write against the closed row must not match.
		plan.Entries[1].Status = types.EntryCompleted
		err := store.SaveDailyPlan(ctx, plan, nil)
		if err == nil {
			t.Fatal("write to closed plan row should fail")
		}

		reread, err := store.GetDailyPlan(ctx, "dp-1")
		if err != nil {
			t.Fatalf("GetDailyPlan: %v", err)
		}
		if reread.Entries[1].Status != types.EntryPending {
			t.Error("closed plan entries were mutated")
		}
	})
}

func TestWeeklyPlanStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	monday := types.NewDate(2025, time.March, 10)

	wp := &types.WeeklyPlan{
		ID:        "wp-1",
		OwnerID:   "alice",
		WeekStart: monday,
		Days: map[time.Weekday][]string{
			time.Monday:  {"t1", "t2"},
			time.Tuesday: {"t3"},
		},
	}

	if err := store.SaveWeeklyPlan(ctx, wp, nil); err != nil {
		t.Fatalf("SaveWeeklyPlan: %v", err)
	}

	found, err := store.FindWeeklyPlan(ctx, "alice", monday)
	if err != nil {
		t.Fatalf("FindWeeklyPlan: %v", err)
	}
	if found == nil {
		t.Fatal("expected weekly plan")
	}
	if len(found.Days[time.Monday]) != 2 || found.Days[time.Tuesday][0] != "t3" {
		t.Errorf("days round trip failed: %+v", found.Days)
	}

	// Upsert replaces the grid for the same (owner, week)
	wp.Days[time.Monday] = []string{"t9"}
	if err := store.SaveWeeklyPlan(ctx, wp, nil); err != nil {
		t.Fatalf("SaveWeeklyPlan upsert: %v", err)
	}
	found, _ = store.FindWeeklyPlan(ctx, "alice", monday)
	if len(found.Days[time.Monday]) != 1 || found.Days[time.Monday][0] != "t9" {
		t.Errorf("upsert did not replace days: %+v", found.Days)
	}
}

func TestGoalStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	goal := &types.Goal{
		ID:        "g-1",
		OwnerID:   "alice",
		Title:     "Run a marathon",
		Horizon:   types.HorizonQuarter,
		Status:    types.GoalActive,
		StartDate: types.NewDate(2025, time.January, 1),
		EndDate:   types.NewDate(2025, time.March, 31),
		KeyResults: []types.KeyResult{
			{ID: "kr-1", GoalID: "g-1", Title: "Long runs", Type: types.KRAccumulative,
				TargetValue: 10, CurrentValue: 3, Increment: 1, Weight: 1},
		},
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		if err := store.CreateGoal(ctx, goal); err != nil {
			t.Fatalf("CreateGoal: %v", err)
		}
		got, err := store.GetGoal(ctx, "g-1")
		if err != nil {
			t.Fatalf("GetGoal: %v", err)
		}
		if got == nil || len(got.KeyResults) != 1 {
			t.Fatalf("got = %+v", got)
		}
		if got.KeyResults[0].CurrentValue != 3 {
			t.Errorf("key result value = %v", got.KeyResults[0].CurrentValue)
		}
	})

	t.Run("ApplyKeyResultEvaluationIsIdempotent", func(t *testing.T) {
		applied, err := store.ApplyKeyResultEvaluation(ctx, "goal-eval", "evt-1", "kr-1", 4)
		if err != nil {
			t.Fatalf("ApplyKeyResultEvaluation: %v", err)
		}
		if !applied {
			t.Fatal("first application should apply")
		}

		// Redelivery of the same event must be a no-op
		applied, err = store.ApplyKeyResultEvaluation(ctx, "goal-eval", "evt-1", "kr-1", 5)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if applied {
			t.Error("replay should not apply")
		}

		kr, err := store.GetKeyResult(ctx, "kr-1")
		if err != nil {
			t.Fatalf("GetKeyResult: %v", err)
		}
		if kr.CurrentValue != 4 {
			t.Errorf("current value = %v, want 4", kr.CurrentValue)
		}
	})

	t.Run("SnapshotWriteOnce", func(t *testing.T) {
		date := types.NewDate(2025, time.March, 10)
		snap := &types.GoalSnapshot{
			GoalID: "g-1", OwnerID: "alice", Date: date, Progress: 0.4,
			KeyResultValues: map[string]float64{"kr-1": 4},
		}
		created, err := store.CreateGoalSnapshot(ctx, snap)
		if err != nil {
			t.Fatalf("CreateGoalSnapshot: %v", err)
		}
		if !created {
			t.Fatal("first snapshot should be created")
		}

		dupe := &types.GoalSnapshot{
			GoalID: "g-1", OwnerID: "alice", Date: date, Progress: 0.9,
			KeyResultValues: map[string]float64{"kr-1": 9},
		}
		created, err = store.CreateGoalSnapshot(ctx, dupe)
		if err != nil {
			t.Fatalf("duplicate CreateGoalSnapshot: %v", err)
		}
		if created {
			t.Error("duplicate snapshot must not be created")
		}

		got, err := store.GetGoalSnapshot(ctx, "g-1", date)
		if err != nil {
			t.Fatalf("GetGoalSnapshot: %v", err)
		}
		if got.Progress != 0.4 {
			t.Errorf("snapshot was altered: progress = %v", got.Progress)
		}

		latest, err := store.GetLatestGoalSnapshot(ctx, "g-1")
		if err != nil {
			t.Fatalf("GetLatestGoalSnapshot: %v", err)
		}
		if latest == nil || latest.Date != date {
			t.Errorf("latest = %+v", latest)
		}
	})

	t.Run("StatusTransitionOneWay", func(t *testing.T) {
		if err := store.UpdateGoalStatus(ctx, "g-1", types.GoalCompleted, nil); err != nil {
			t.Fatalf("UpdateGoalStatus: %v", err)
		}

		err := store.UpdateGoalStatus(ctx, "g-1", types.GoalAbandoned, nil)
		if !errors.Is(err, types.ErrDomainViolation) {
			t.Errorf("terminal transition should be a domain violation, got %v", err)
		}

		// Re-applying the same status is idempotent
		if err := store.UpdateGoalStatus(ctx, "g-1", types.GoalCompleted, nil); err != nil {
			t.Errorf("idempotent status update: %v", err)
		}
	})
}

func TestStreakStateStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	none, err := store.GetStreakState(ctx, "alice")
	if err != nil {
		t.Fatalf("GetStreakState: %v", err)
	}
	if none != nil {
		t.Error("unevaluated owner should have nil state")
	}

	state := &types.StreakState{
		OwnerID:           "alice",
		CurrentStreak:     3,
		LongestStreak:     5,
		LastEvaluatedDate: types.NewDate(2025, time.March, 10),
	}
	if err := store.SaveStreakState(ctx, state); err != nil {
		t.Fatalf("SaveStreakState: %v", err)
	}

	got, err := store.GetStreakState(ctx, "alice")
	if err != nil {
		t.Fatalf("GetStreakState: %v", err)
	}
	if got.CurrentStreak != 3 || got.LongestStreak != 5 {
		t.Errorf("got = %+v", got)
	}
	if got.LastEvaluatedDate.String() != "2025-03-10" {
		t.Errorf("last evaluated = %s", got.LastEvaluatedDate)
	}

	// Upsert path
	state.CurrentStreak = 4
	state.LongestStreak = 5
	if err := store.SaveStreakState(ctx, state); err != nil {
		t.Fatalf("SaveStreakState upsert: %v", err)
	}
	got, _ = store.GetStreakState(ctx, "alice")
	if got.CurrentStreak != 4 {
		t.Errorf("upsert failed: %+v", got)
	}
}

func TestNudgeStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nudge := &types.Nudge{
		ID:           "n-1",
		OwnerID:      "alice",
		Type:         types.NudgeMissedDay,
		Message:      "Yesterday went unclosed",
		ScheduledFor: time.Now().Add(time.Hour),
		Status:       types.NudgePending,
	}
	if err := store.CreateNudge(ctx, nudge); err != nil {
		t.Fatalf("CreateNudge: %v", err)
	}

	pending, err := store.ListNudges(ctx, "alice", types.NudgePending)
	if err != nil {
		t.Fatalf("ListNudges: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending nudge, got %d", len(pending))
	}

	if err := store.UpdateNudgeStatus(ctx, "n-1", types.NudgeSent); err != nil {
		t.Fatalf("UpdateNudgeStatus: %v", err)
	}

	deleted, err := store.DeleteNudges(ctx, "alice")
	if err != nil {
		t.Fatalf("DeleteNudges: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if err := store.UpdateNudgeStatus(ctx, "n-1", types.NudgeCancelled); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestEventLogStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		event, err := events.NewDayClosedEvent("alice", base.AddDate(0, 0, i), events.DayClosedData{
			DailyPlanID:     "dp-1",
			Date:            types.DateOf(base.AddDate(0, 0, i)).String(),
			CompletionRatio: 1.0,
			EntryCount:      1,
		})
		if err != nil {
			t.Fatalf("NewDayClosedEvent: %v", err)
		}
		if err := store.AppendEvent(ctx, event); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	t.Run("RecentEventsDescending", func(t *testing.T) {
		recent, err := store.GetRecentEvents(ctx, "alice", 3)
		if err != nil {
			t.Fatalf("GetRecentEvents: %v", err)
		}
		if len(recent) != 3 {
			t.Fatalf("expected 3 events, got %d", len(recent))
		}
		for i := 1; i < len(recent); i++ {
			if recent[i].OccurredAt.After(recent[i-1].OccurredAt) {
				t.Error("events not in descending occurred_at order")
			}
		}
	})

	t.Run("FilterByType", func(t *testing.T) {
		got, err := store.GetEvents(ctx, events.EventFilter{
			OwnerID: "alice",
			Type:    events.EventTypeTaskCompleted,
		})
		if err != nil {
			t.Fatalf("GetEvents: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no task_completed events, got %d", len(got))
		}
	})

	t.Run("CleanupByAge", func(t *testing.T) {
		// All test events occurred in the past relative to a 1-day
		// retention window measured from now.
		deleted, err := store.CleanupEventsByAge(ctx, 1, 2)
		if err != nil {
			t.Fatalf("CleanupEventsByAge: %v", err)
		}
		if deleted != 5 {
			t.Errorf("deleted = %d, want 5", deleted)
		}

		remaining, _ := store.GetRecentEvents(ctx, "alice", 10)
		if len(remaining) != 0 {
			t.Errorf("expected empty log, got %d", len(remaining))
		}
	})
}

func TestTaskStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &types.Task{ID: "t-1", OwnerID: "alice", Title: "Write report", KeyResultID: "kr-1"}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := store.GetTask(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.KeyResultID != "kr-1" {
		t.Errorf("key result link = %q", got.KeyResultID)
	}

	if err := store.UpdateTaskTitle(ctx, "t-1", "Write quarterly report"); err != nil {
		t.Fatalf("UpdateTaskTitle: %v", err)
	}
	got, _ = store.GetTask(ctx, "t-1")
	if got.Title != "Write quarterly report" {
		t.Errorf("title = %q", got.Title)
	}

	if err := store.UpdateTaskTitle(ctx, "t-404", "x"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	tasks, err := store.ListTasks(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(tasks))
	}
}
