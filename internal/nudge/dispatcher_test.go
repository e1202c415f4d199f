package nudge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/types"
)

// stubRule suggests a canned nudge or fails, depending on configuration.
type stubRule struct {
	name    string
	suggest bool
	fail    bool
	calls   int
}

func (r *stubRule) Name() string { return r.name }

func (r *stubRule) Supports(eventType events.EventType) bool {
	return eventType == events.EventTypeDayClosed
}

func (r *stubRule) Evaluate(ctx context.Context, event *events.DomainEvent, store storage.Storage) (*types.Nudge, error) {
	r.calls++
	if r.fail {
		return nil, errors.New("rule exploded")
	}
	if !r.suggest {
		return nil, nil
	}
	return &types.Nudge{
		Type:         types.NudgeMissedDay,
		Message:      "suggested by " + r.name,
		ScheduledFor: time.Now().Add(time.Hour),
	}, nil
}

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewStorage(context.Background(), &storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func dayClosedEvent(t *testing.T, ownerID string) *events.DomainEvent {
	t.Helper()
	event, err := events.NewDayClosedEvent(ownerID, time.Now(), events.DayClosedData{
		DailyPlanID: "dp-1", Date: "2025-03-12", CompletionRatio: 0.0, EntryCount: 3,
	})
	require.NoError(t, err)
	return event
}

func TestDispatcherPersistsSuggestions(t *testing.T) {
	store := newTestStore(t)
	rule := &stubRule{name: "suggester", suggest: true}
	d := NewDispatcher(store, []Rule{rule}, 10)
	ctx := context.Background()

	require.NoError(t, d.Handle(ctx, dayClosedEvent(t, "alice")))

	nudges, err := store.ListNudges(ctx, "alice", types.NudgePending)
	require.NoError(t, err)
	require.Len(t, nudges, 1)
	assert.Equal(t, types.NudgeMissedDay, nudges[0].Type)
	assert.NotEmpty(t, nudges[0].ID)
}

func TestRuleFailureIsolation(t *testing.T) {
	store := newTestStore(t)
	failing := &stubRule{name: "broken", fail: true}
	healthy := &stubRule{name: "healthy", suggest: true}
	d := NewDispatcher(store, []Rule{failing, healthy}, 10)
	d.warnf = func(string, ...interface{}) {}
	ctx := context.Background()

	require.NoError(t, d.Handle(ctx, dayClosedEvent(t, "alice")))

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls, "later rules run despite earlier failure")

	nudges, err := store.ListNudges(ctx, "alice", types.NudgePending)
	require.NoError(t, err)
	assert.Len(t, nudges, 1)
}

func TestPerOwnerThrottle(t *testing.T) {
	store := newTestStore(t)
	rule := &stubRule{name: "chatty", suggest: true}
	d := NewDispatcher(store, []Rule{rule}, 2)
	d.warnf = func(string, ...interface{}) {}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Handle(ctx, dayClosedEvent(t, "alice")))
	}
	// A different owner has their own budget.
	require.NoError(t, d.Handle(ctx, dayClosedEvent(t, "bob")))

	aliceNudges, err := store.ListNudges(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, aliceNudges, 2, "creation capped at the owner's burst")

	bobNudges, err := store.ListNudges(ctx, "bob", "")
	require.NoError(t, err)
	assert.Len(t, bobNudges, 1)
}

func TestStubRulesSuggestNothing(t *testing.T) {
	store := newTestStore(t)
	d := NewDispatcher(store, DefaultRules(), 10)
	ctx := context.Background()

	require.NoError(t, d.Handle(ctx, dayClosedEvent(t, "alice")))

	nudges, err := store.ListNudges(ctx, "alice", "")
	require.NoError(t, err)
	assert.Empty(t, nudges)
}

func TestNudgesAreNonAuthoritative(t *testing.T) {
	store := newTestStore(t)
	rule := &stubRule{name: "suggester", suggest: true}
	d := NewDispatcher(store, []Rule{rule}, 10)
	ctx := context.Background()

	// Build some domain truth alongside the nudges.
	task := &types.Task{ID: "t1", OwnerID: "alice", Title: "Real work"}
	require.NoError(t, store.CreateTask(ctx, task))
	state := &types.StreakState{OwnerID: "alice", CurrentStreak: 2, LongestStreak: 4,
		LastEvaluatedDate: types.NewDate(2025, time.March, 11)}
	require.NoError(t, store.SaveStreakState(ctx, state))

	require.NoError(t, d.Handle(ctx, dayClosedEvent(t, "alice")))

	before := domainFingerprint(t, store, "alice")

	deleted, err := store.DeleteNudges(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	assert.Equal(t, before, domainFingerprint(t, store, "alice"),
		"deleting nudges must not change domain query results")
}

// domainFingerprint renders the domain-truth queries a nudge purge must
// not disturb.
func domainFingerprint(t *testing.T, store storage.Storage, ownerID string) string {
	t.Helper()
	ctx := context.Background()

	tasks, err := store.ListTasks(ctx, ownerID)
	require.NoError(t, err)
	state, err := store.GetStreakState(ctx, ownerID)
	require.NoError(t, err)
	goals, err := store.ListActiveGoals(ctx, ownerID)
	require.NoError(t, err)

	return fmt.Sprintf("%d tasks / %+v / %d goals", len(tasks), state, len(goals))
}
