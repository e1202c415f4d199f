package types

import (
	"fmt"
	"time"
)

// StreakState is derived behavioral-continuity status for one owner.
// It is produced solely by folding the sequence of day-closed facts in
// date order; no external API may assign CurrentStreak directly. The
// state is safely reconstructable by replaying the domain event log.
type StreakState struct {
	OwnerID           string    `json:"owner_id"`
	CurrentStreak     int       `json:"current_streak"`
	LongestStreak     int       `json:"longest_streak"`
	LastEvaluatedDate Date      `json:"last_evaluated_date"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks if the streak state has valid field values
func (s *StreakState) Validate() error {
	if s.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if s.CurrentStreak < 0 {
		return fmt.Errorf("current_streak cannot be negative (got %d)", s.CurrentStreak)
	}
	if s.LongestStreak < s.CurrentStreak {
		return fmt.Errorf("longest_streak %d cannot be less than current_streak %d",
			s.LongestStreak, s.CurrentStreak)
	}
	return nil
}
