package types

import (
	"fmt"
	"time"
)

// Task represents a unit of intent, independent of when it is done.
// Completion is recorded on DailyPlan entries, never on the Task itself.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	KeyResultID string    `json:"key_result_id,omitempty"` // Optional link to a measurable sub-target
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks if the task has valid field values
func (t *Task) Validate() error {
	if t.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if len(t.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	return nil
}

// EntryStatus represents the state of a single plan entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
)

// IsValid checks if the entry status value is valid
func (s EntryStatus) IsValid() bool {
	return s == EntryPending || s == EntryCompleted
}

// PlanEntry is one scheduled task within a DailyPlan. Entries exist only
// inside a plan; there is no independent entry lifecycle.
type PlanEntry struct {
	TaskID      string      `json:"task_id"`
	Status      EntryStatus `json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// DailyPlan is the structural/execution record for one user-day.
// Exactly one plan exists per (owner, date). Once Closed is set, no entry
// may change and Closed cannot be unset; the plan has become truth.
type DailyPlan struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Date      Date        `json:"date"`
	Entries   []PlanEntry `json:"entries"`
	Closed    bool        `json:"closed"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
	Version   int64       `json:"version"` // Optimistic concurrency guard
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks if the daily plan has valid field values
func (p *DailyPlan) Validate() error {
	if p.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if p.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	seen := make(map[string]bool, len(p.Entries))
	for i, e := range p.Entries {
		if e.TaskID == "" {
			return fmt.Errorf("entry %d: task_id is required", i)
		}
		if !e.Status.IsValid() {
			return fmt.Errorf("entry %d: invalid status: %s", i, e.Status)
		}
		if seen[e.TaskID] {
			return fmt.Errorf("duplicate entry for task %s", e.TaskID)
		}
		seen[e.TaskID] = true
	}
	return nil
}

// Entry returns the entry for taskID, or nil if no such entry exists.
func (p *DailyPlan) Entry(taskID string) *PlanEntry {
	for i := range p.Entries {
		if p.Entries[i].TaskID == taskID {
			return &p.Entries[i]
		}
	}
	return nil
}

// CompletionRatio returns the fraction of entries completed, in [0, 1].
// An empty plan counts as fully complete: closing a day with nothing
// scheduled is a perfect day, not a failed one.
func (p *DailyPlan) CompletionRatio() float64 {
	if len(p.Entries) == 0 {
		return 1.0
	}
	completed := 0
	for _, e := range p.Entries {
		if e.Status == EntryCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Entries))
}

// WeeklyPlan maps each day of a week to the task ids planned for it.
// The grid is intent: editing it never alters days that already closed.
type WeeklyPlan struct {
	ID        string                   `json:"id"`
	OwnerID   string                   `json:"owner_id"`
	WeekStart Date                     `json:"week_start"`
	Days      map[time.Weekday][]string `json:"days"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Validate checks if the weekly plan has valid field values
func (w *WeeklyPlan) Validate() error {
	if w.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if w.WeekStart.IsZero() {
		return fmt.Errorf("week_start is required")
	}
	if w.WeekStart.Weekday() != time.Monday {
		return fmt.Errorf("week_start must be a Monday (got %s)", w.WeekStart.Weekday())
	}
	for day, taskIDs := range w.Days {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("invalid weekday: %d", day)
		}
		for _, id := range taskIDs {
			if id == "" {
				return fmt.Errorf("empty task id in %s", day)
			}
		}
	}
	return nil
}

// DateFor returns the calendar date of the given weekday within this week.
func (w *WeeklyPlan) DateFor(day time.Weekday) Date {
	offset := (int(day) + 6) % 7 // Monday=0 ... Sunday=6
	return w.WeekStart.AddDays(offset)
}

// TasksFor returns the task ids planned for the given date, or nil when
// the date falls outside this week or has nothing planned.
func (w *WeeklyPlan) TasksFor(date Date) []string {
	if date.Before(w.WeekStart) || date.After(w.WeekStart.AddDays(6)) {
		return nil
	}
	return w.Days[date.Weekday()]
}
