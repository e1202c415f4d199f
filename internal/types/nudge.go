package types

import (
	"fmt"
	"time"
)

// NudgeStatus represents the delivery state of a nudge.
type NudgeStatus string

const (
	NudgePending   NudgeStatus = "pending"
	NudgeSent      NudgeStatus = "sent"
	NudgeCancelled NudgeStatus = "cancelled"
)

// IsValid checks if the nudge status value is valid
func (s NudgeStatus) IsValid() bool {
	switch s {
	case NudgePending, NudgeSent, NudgeCancelled:
		return true
	}
	return false
}

// NudgeType categorizes the suggestion a nudge carries.
type NudgeType string

const (
	NudgeMissedDay    NudgeType = "missed_day"
	NudgeStreakAtRisk NudgeType = "streak_at_risk"
)

// IsValid checks if the nudge type value is valid
func (t NudgeType) IsValid() bool {
	return t == NudgeMissedDay || t == NudgeStreakAtRisk
}

// Nudge is an ephemeral, non-authoritative suggestion emitted by the
// dispatcher. Deleting every nudge leaves domain truth unaffected: nothing
// else reads them as a source of state.
type Nudge struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"owner_id"`
	Type         NudgeType   `json:"type"`
	Message      string      `json:"message"`
	ScheduledFor time.Time   `json:"scheduled_for"`
	Status       NudgeStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Validate checks if the nudge has valid field values
func (n *Nudge) Validate() error {
	if n.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("invalid type: %s", n.Type)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", n.Status)
	}
	if n.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
