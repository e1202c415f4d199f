// Package events defines the immutable domain facts the engine publishes
// and the in-process bus that delivers them. Events are append-only: once
// published they are never mutated or deleted, forming the audit trail from
// which derived state (streaks, snapshots) can be reconstructed.
package events

import (
	"context"
	"time"
)

// EventType represents the type of domain fact that occurred.
type EventType string

const (
	// EventTypeTaskCompleted indicates a plan entry was marked completed
	EventTypeTaskCompleted EventType = "task_completed"
	// EventTypeDayClosed indicates a daily plan transitioned to closed
	EventTypeDayClosed EventType = "day_closed"
	// EventTypeWeeklyPlanUpdated indicates a weekly plan mapping was replaced
	EventTypeWeeklyPlanUpdated EventType = "weekly_plan_updated"
	// EventTypeGoalStatusChanged indicates a goal moved toward a terminal state
	EventTypeGoalStatusChanged EventType = "goal_status_changed"
)

// IsValid checks if the event type value is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeTaskCompleted, EventTypeDayClosed, EventTypeWeeklyPlanUpdated, EventTypeGoalStatusChanged:
		return true
	}
	return false
}

// DomainEvent is an immutable record of something that happened.
// The Data field carries the type-specific payload; use the typed
// accessors in helpers.go rather than reading the map directly.
type DomainEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the discriminant for the payload shape
	Type EventType `json:"type"`
	// OwnerID is the user the fact belongs to; delivery is FIFO per owner
	OwnerID string `json:"owner_id"`
	// OccurredAt is when the fact happened (engine clock, not wall clock)
	OccurredAt time.Time `json:"occurred_at"`
	// Data contains structured, type-specific payload (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// TaskCompletedData contains structured data for task completion events.
type TaskCompletedData struct {
	// TaskID is the task that was completed
	TaskID string `json:"task_id"`
	// DailyPlanID is the plan the completion was recorded on
	DailyPlanID string `json:"daily_plan_id"`
	// Date is the plan's calendar date (ISO 8601)
	Date string `json:"date"`
}

// DayClosedData contains structured data for day close events.
type DayClosedData struct {
	// DailyPlanID is the plan that closed
	DailyPlanID string `json:"daily_plan_id"`
	// Date is the closed day (ISO 8601)
	Date string `json:"date"`
	// CompletionRatio is the fraction of entries completed, in [0, 1]
	CompletionRatio float64 `json:"completion_ratio"`
	// EntryCount is the number of entries the plan held at close
	EntryCount int `json:"entry_count"`
}

// WeeklyPlanUpdatedData contains structured data for weekly plan updates.
type WeeklyPlanUpdatedData struct {
	// WeeklyPlanID is the plan that was updated
	WeeklyPlanID string `json:"weekly_plan_id"`
	// WeekStart is the Monday the plan covers (ISO 8601)
	WeekStart string `json:"week_start"`
	// DaysReconciled is the number of open/future days re-materialized
	DaysReconciled int `json:"days_reconciled"`
}

// GoalStatusChangedData contains structured data for goal status transitions.
type GoalStatusChangedData struct {
	// GoalID is the goal whose status changed
	GoalID string `json:"goal_id"`
	// FromStatus is the previous status
	FromStatus string `json:"from_status"`
	// ToStatus is the new (terminal-ward) status
	ToStatus string `json:"to_status"`
}

// Handler processes a published domain event. Handlers must be idempotent
// per event ID: the bus guarantees at-least-once, in-order delivery per owner.
type Handler interface {
	// Name identifies the subscriber in error reports
	Name() string
	// Handle processes the event. An error isolates to this subscriber;
	// it never prevents delivery to other subscribers.
	Handle(ctx context.Context, event *DomainEvent) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, event *DomainEvent) error
}

// Name identifies the subscriber in error reports
func (h HandlerFunc) Name() string { return h.HandlerName }

// Handle processes the event
func (h HandlerFunc) Handle(ctx context.Context, event *DomainEvent) error {
	return h.Fn(ctx, event)
}

// EventLog defines the persistence contract for the append-only event log.
type EventLog interface {
	// AppendEvent stores a new event; events are never updated or deleted
	// by domain operations (only age-based retention may trim the log)
	AppendEvent(ctx context.Context, event *DomainEvent) error

	// GetEvents retrieves events matching the given filter, most recent first
	GetEvents(ctx context.Context, filter EventFilter) ([]*DomainEvent, error)

	// GetRecentEvents retrieves the most recent events up to the specified limit
	GetRecentEvents(ctx context.Context, ownerID string, limit int) ([]*DomainEvent, error)
}

// EventFilter defines criteria for filtering the event log.
type EventFilter struct {
	// OwnerID filters events by owner
	OwnerID string
	// Type filters events by event type
	Type EventType
	// AfterTime filters events that occurred after this time
	AfterTime time.Time
	// BeforeTime filters events that occurred before this time
	BeforeTime time.Time
	// Limit limits the number of events returned
	Limit int
}
