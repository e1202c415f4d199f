package types

import (
	"fmt"
	"time"
)

// Horizon represents the time horizon a goal is planned against.
type Horizon string

const (
	HorizonWeek    Horizon = "week"
	HorizonMonth   Horizon = "month"
	HorizonQuarter Horizon = "quarter"
	HorizonYear    Horizon = "year"
)

// IsValid checks if the horizon value is valid
func (h Horizon) IsValid() bool {
	switch h {
	case HorizonWeek, HorizonMonth, HorizonQuarter, HorizonYear:
		return true
	}
	return false
}

// GoalStatus represents the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// IsValid checks if the goal status value is valid
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalAbandoned:
		return true
	}
	return false
}

// ValidTransitions defines the one-directional goal status machine.
//
//	active → completed
//	active → abandoned
//
// Both completed and abandoned are terminal; there is no path back to active.
func (s GoalStatus) ValidTransitions() []GoalStatus {
	switch s {
	case GoalActive:
		return []GoalStatus{GoalCompleted, GoalAbandoned}
	case GoalCompleted, GoalAbandoned:
		return []GoalStatus{} // Terminal states
	default:
		return []GoalStatus{}
	}
}

// CanTransitionTo checks if a transition from this status to the target is valid
func (s GoalStatus) CanTransitionTo(target GoalStatus) bool {
	for _, valid := range s.ValidTransitions() {
		if valid == target {
			return true
		}
	}
	return false
}

// Goal is a long-horizon objective owning zero or more key results.
// Key results cascade with the goal: they have no lifecycle of their own.
type Goal struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Title      string      `json:"title"`
	Horizon    Horizon     `json:"horizon"`
	Status     GoalStatus  `json:"status"`
	StartDate  Date        `json:"start_date"`
	EndDate    Date        `json:"end_date"`
	KeyResults []KeyResult `json:"key_results"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Validate checks if the goal has valid field values
func (g *Goal) Validate() error {
	if g.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if len(g.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if !g.Horizon.IsValid() {
		return fmt.Errorf("invalid horizon: %s", g.Horizon)
	}
	if !g.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", g.Status)
	}
	if g.StartDate.IsZero() || g.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if g.EndDate.Before(g.StartDate) {
		return fmt.Errorf("end_date %s is before start_date %s", g.EndDate, g.StartDate)
	}
	for i := range g.KeyResults {
		if err := g.KeyResults[i].Validate(); err != nil {
			return fmt.Errorf("key result %d: %w", i, err)
		}
	}
	return nil
}

// Progress computes the goal's aggregate progress as the weighted mean of
// each key result's CurrentValue/TargetValue, with weights normalized to
// sum to 1. A goal with no key results has zero progress.
func (g *Goal) Progress() float64 {
	totalWeight := 0.0
	for _, kr := range g.KeyResults {
		totalWeight += kr.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	progress := 0.0
	for _, kr := range g.KeyResults {
		progress += (kr.Weight / totalWeight) * kr.Fraction()
	}
	return progress
}

// KeyResultType determines the evaluation rule applied on task completion.
type KeyResultType string

const (
	// KRAccumulative adds a per-completion increment up to the target value.
	KRAccumulative KeyResultType = "accumulative"
	// KRHabit marks the current period satisfied when any qualifying
	// completion occurs within it.
	KRHabit KeyResultType = "habit"
	// KRMilestone jumps to the target value on the first qualifying
	// completion (binary achievement).
	KRMilestone KeyResultType = "milestone"
)

// IsValid checks if the key result type value is valid
func (t KeyResultType) IsValid() bool {
	switch t {
	case KRAccumulative, KRHabit, KRMilestone:
		return true
	}
	return false
}

// KeyResult is a measurable sub-target of a goal. CurrentValue changes only
// through evaluated completion facts, never by direct assignment.
type KeyResult struct {
	ID           string        `json:"id"`
	GoalID       string        `json:"goal_id"`
	Title        string        `json:"title"`
	Type         KeyResultType `json:"type"`
	StartValue   float64       `json:"start_value"`
	TargetValue  float64       `json:"target_value"`
	CurrentValue float64       `json:"current_value"`
	// Increment is the contribution one completion adds for accumulative
	// key results. Configurable per key result; defaults to 1.
	Increment float64 `json:"increment"`
	Weight    float64 `json:"weight"`
}

// Validate checks if the key result has valid field values
func (k *KeyResult) Validate() error {
	if len(k.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if !k.Type.IsValid() {
		return fmt.Errorf("invalid type: %s", k.Type)
	}
	if k.TargetValue <= k.StartValue {
		return fmt.Errorf("target_value %.2f must exceed start_value %.2f", k.TargetValue, k.StartValue)
	}
	if k.Weight < 0 {
		return fmt.Errorf("weight cannot be negative (got %.2f)", k.Weight)
	}
	if k.Increment < 0 {
		return fmt.Errorf("increment cannot be negative (got %.2f)", k.Increment)
	}
	return nil
}

// Fraction returns the key result's progress as CurrentValue/TargetValue,
// clamped to [0, 1].
func (k *KeyResult) Fraction() float64 {
	if k.TargetValue == 0 {
		return 0
	}
	f := k.CurrentValue / k.TargetValue
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// GoalSnapshot is a frozen point-in-time progress record written when a day
// closes. Snapshots are write-once: they are never recomputed or overwritten
// after creation.
type GoalSnapshot struct {
	GoalID    string    `json:"goal_id"`
	OwnerID   string    `json:"owner_id"`
	Date      Date      `json:"date"`
	Progress  float64   `json:"progress"`
	// KeyResultValues records each key result's CurrentValue at snapshot time.
	KeyResultValues map[string]float64 `json:"key_result_values"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Validate checks if the snapshot has valid field values
func (s *GoalSnapshot) Validate() error {
	if s.GoalID == "" {
		return fmt.Errorf("goal_id is required")
	}
	if s.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if s.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if s.Progress < 0 || s.Progress > 1 {
		return fmt.Errorf("progress must be in [0, 1] (got %.4f)", s.Progress)
	}
	return nil
}
