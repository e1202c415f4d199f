package storage

import (
	"context"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/storage/sqlite"
	"github.com/dayfold/dayfold/internal/types"
)

// Storage defines the interface for entity storage backends.
//
// Write ownership is a contract, not a convention: DailyPlan and WeeklyPlan
// are written only by the planning engine, KeyResult values and snapshots
// only by goal evaluation, StreakState only by streak derivation, and
// Nudges only by the dispatcher. The event log is append-only.
type Storage interface {
	// Tasks
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	UpdateTaskTitle(ctx context.Context, id, title string) error
	ListTasks(ctx context.Context, ownerID string) ([]*types.Task, error)

	// Daily plans. SaveDailyPlan persists the plan and, when event is
	// non-nil, appends the event in the same transaction so structure
	// and fact commit atomically or not at all. The plan's Version field
	// guards against concurrent writers: a losing writer gets a
	// retryable TransientStoreFailure and no state change.
	SaveDailyPlan(ctx context.Context, plan *types.DailyPlan, event *events.DomainEvent) error
	GetDailyPlan(ctx context.Context, id string) (*types.DailyPlan, error)
	FindDailyPlan(ctx context.Context, ownerID string, date types.Date) (*types.DailyPlan, error)

	// Weekly plans
	SaveWeeklyPlan(ctx context.Context, plan *types.WeeklyPlan, event *events.DomainEvent) error
	GetWeeklyPlan(ctx context.Context, id string) (*types.WeeklyPlan, error)
	FindWeeklyPlan(ctx context.Context, ownerID string, weekStart types.Date) (*types.WeeklyPlan, error)

	// Goals and key results
	CreateGoal(ctx context.Context, goal *types.Goal) error
	GetGoal(ctx context.Context, id string) (*types.Goal, error)
	ListActiveGoals(ctx context.Context, ownerID string) ([]*types.Goal, error)
	UpdateGoalStatus(ctx context.Context, id string, status types.GoalStatus, event *events.DomainEvent) error
	GetKeyResult(ctx context.Context, id string) (*types.KeyResult, error)

	// ApplyKeyResultEvaluation updates a key result's current value if and
	// only if the (subscriber, event) pair has not been applied before.
	// Returns false when the event was already applied (idempotent replay).
	ApplyKeyResultEvaluation(ctx context.Context, subscriber, eventID, keyResultID string, newValue float64) (bool, error)

	// Goal snapshots are write-once: creating a snapshot for a
	// (goal, date) that already has one is a no-op returning false, and
	// the existing snapshot is never altered.
	CreateGoalSnapshot(ctx context.Context, snapshot *types.GoalSnapshot) (bool, error)
	GetGoalSnapshot(ctx context.Context, goalID string, date types.Date) (*types.GoalSnapshot, error)
	GetLatestGoalSnapshot(ctx context.Context, goalID string) (*types.GoalSnapshot, error)

	// Streak state, written solely by the streak deriver
	GetStreakState(ctx context.Context, ownerID string) (*types.StreakState, error)
	SaveStreakState(ctx context.Context, state *types.StreakState) error

	// Nudges, written solely by the dispatcher; non-authoritative
	CreateNudge(ctx context.Context, nudge *types.Nudge) error
	ListNudges(ctx context.Context, ownerID string, status types.NudgeStatus) ([]*types.Nudge, error)
	UpdateNudgeStatus(ctx context.Context, id string, status types.NudgeStatus) error
	DeleteNudges(ctx context.Context, ownerID string) (int, error)

	// Domain event log (append-only audit trail)
	AppendEvent(ctx context.Context, event *events.DomainEvent) error
	GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.DomainEvent, error)
	GetRecentEvents(ctx context.Context, ownerID string, limit int) ([]*events.DomainEvent, error)

	// Event retention (age-based cleanup of the audit feed)
	CleanupEventsByAge(ctx context.Context, retentionDays, batchSize int) (int, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".dayfold/dayfold.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".dayfold/dayfold.db",
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = ".dayfold/dayfold.db"
	}
	return sqlite.New(cfg.Path)
}
