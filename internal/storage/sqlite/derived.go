package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dayfold/dayfold/internal/types"
)

// GetStreakState retrieves the streak state for an owner, or nil if the
// owner has never been evaluated.
func (s *SQLiteStorage) GetStreakState(ctx context.Context, ownerID string) (*types.StreakState, error) {
	var state types.StreakState
	var lastDate sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id, current_streak, longest_streak, last_evaluated_date, updated_at
		FROM streak_states
		WHERE owner_id = ?
	`, ownerID).Scan(&state.OwnerID, &state.CurrentStreak, &state.LongestStreak, &lastDate, &state.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}

	if lastDate.Valid && lastDate.String != "" {
		state.LastEvaluatedDate, err = types.ParseDate(lastDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt last evaluated date: %w", err)
		}
	}

	return &state, nil
}

// SaveStreakState upserts an owner's streak state. Only the streak deriver
// calls this; it is the single write path for derived continuity.
func (s *SQLiteStorage) SaveStreakState(ctx context.Context, state *types.StreakState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	state.UpdatedAt = time.Now()

	var lastDate interface{}
	if !state.LastEvaluatedDate.IsZero() {
		lastDate = state.LastEvaluatedDate.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streak_states (owner_id, current_streak, longest_streak, last_evaluated_date, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_evaluated_date = excluded.last_evaluated_date,
			updated_at = excluded.updated_at
	`, state.OwnerID, state.CurrentStreak, state.LongestStreak, lastDate, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}

	return nil
}
