package events

import (
	"time"

	"github.com/google/uuid"
)

// NewTaskCompletedEvent creates a new DomainEvent for a task completion with type-safe data.
func NewTaskCompletedEvent(ownerID string, occurredAt time.Time, data TaskCompletedData) (*DomainEvent, error) {
	event := &DomainEvent{
		ID:         uuid.New().String(),
		Type:       EventTypeTaskCompleted,
		OwnerID:    ownerID,
		OccurredAt: occurredAt,
	}
	if err := event.SetTaskCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewDayClosedEvent creates a new DomainEvent for a day close with type-safe data.
func NewDayClosedEvent(ownerID string, occurredAt time.Time, data DayClosedData) (*DomainEvent, error) {
	event := &DomainEvent{
		ID:         uuid.New().String(),
		Type:       EventTypeDayClosed,
		OwnerID:    ownerID,
		OccurredAt: occurredAt,
	}
	if err := event.SetDayClosedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewWeeklyPlanUpdatedEvent creates a new DomainEvent for a weekly plan update with type-safe data.
func NewWeeklyPlanUpdatedEvent(ownerID string, occurredAt time.Time, data WeeklyPlanUpdatedData) (*DomainEvent, error) {
	event := &DomainEvent{
		ID:         uuid.New().String(),
		Type:       EventTypeWeeklyPlanUpdated,
		OwnerID:    ownerID,
		OccurredAt: occurredAt,
	}
	if err := event.SetWeeklyPlanUpdatedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewGoalStatusChangedEvent creates a new DomainEvent for a goal status transition with type-safe data.
func NewGoalStatusChangedEvent(ownerID string, occurredAt time.Time, data GoalStatusChangedData) (*DomainEvent, error) {
	event := &DomainEvent{
		ID:         uuid.New().String(),
		Type:       EventTypeGoalStatusChanged,
		OwnerID:    ownerID,
		OccurredAt: occurredAt,
	}
	if err := event.SetGoalStatusChangedData(data); err != nil {
		return nil, err
	}
	return event, nil
}
