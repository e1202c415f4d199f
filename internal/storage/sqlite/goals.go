package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/types"
)

// CreateGoal creates a goal together with its key results
func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *types.Goal) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.TransientStoref("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO goals (id, owner_id, title, horizon, status, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, goal.ID, goal.OwnerID, goal.Title, goal.Horizon, goal.Status,
		goal.StartDate.String(), goal.EndDate.String(), goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	for _, kr := range goal.KeyResults {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO key_results (id, goal_id, title, type, start_value, target_value, current_value, increment, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, kr.ID, goal.ID, kr.Title, kr.Type, kr.StartValue, kr.TargetValue, kr.CurrentValue, kr.Increment, kr.Weight)
		if err != nil {
			return fmt.Errorf("failed to insert key result %s: %w", kr.ID, err)
		}
	}

	return tx.Commit()
}

// GetGoal retrieves a goal with its key results, or nil if it does not exist
func (s *SQLiteStorage) GetGoal(ctx context.Context, id string) (*types.Goal, error) {
	goals, err := s.loadGoals(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}
	return goals[0], nil
}

// ListActiveGoals retrieves all active goals for an owner with key results
func (s *SQLiteStorage) ListActiveGoals(ctx context.Context, ownerID string) ([]*types.Goal, error) {
	return s.loadGoals(ctx, `WHERE owner_id = ? AND status = ?`, ownerID, types.GoalActive)
}

func (s *SQLiteStorage) loadGoals(ctx context.Context, where string, args ...interface{}) ([]*types.Goal, error) {
	query := `
		SELECT id, owner_id, title, horizon, status, start_date, end_date, created_at, updated_at
		FROM goals ` + where + ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*types.Goal
	for rows.Next() {
		var goal types.Goal
		var startStr, endStr string
		if err := rows.Scan(&goal.ID, &goal.OwnerID, &goal.Title, &goal.Horizon, &goal.Status,
			&startStr, &endStr, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		if goal.StartDate, err = types.ParseDate(startStr); err != nil {
			return nil, fmt.Errorf("corrupt goal start date: %w", err)
		}
		if goal.EndDate, err = types.ParseDate(endStr); err != nil {
			return nil, fmt.Errorf("corrupt goal end date: %w", err)
		}
		goals = append(goals, &goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal rows: %w", err)
	}

	for _, goal := range goals {
		krs, err := s.loadKeyResults(ctx, goal.ID)
		if err != nil {
			return nil, err
		}
		goal.KeyResults = krs
	}

	return goals, nil
}

func (s *SQLiteStorage) loadKeyResults(ctx context.Context, goalID string) ([]types.KeyResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, goal_id, title, type, start_value, target_value, current_value, increment, weight
		FROM key_results
		WHERE goal_id = ?
		ORDER BY id ASC
	`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query key results: %w", err)
	}
	defer rows.Close()

	var krs []types.KeyResult
	for rows.Next() {
		var kr types.KeyResult
		if err := rows.Scan(&kr.ID, &kr.GoalID, &kr.Title, &kr.Type, &kr.StartValue,
			&kr.TargetValue, &kr.CurrentValue, &kr.Increment, &kr.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan key result: %w", err)
		}
		krs = append(krs, kr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key result rows: %w", err)
	}

	return krs, nil
}

// GetKeyResult retrieves a key result by ID, or nil if it does not exist
func (s *SQLiteStorage) GetKeyResult(ctx context.Context, id string) (*types.KeyResult, error) {
	var kr types.KeyResult
	err := s.db.QueryRowContext(ctx, `
		SELECT id, goal_id, title, type, start_value, target_value, current_value, increment, weight
		FROM key_results
		WHERE id = ?
	`, id).Scan(&kr.ID, &kr.GoalID, &kr.Title, &kr.Type, &kr.StartValue,
		&kr.TargetValue, &kr.CurrentValue, &kr.Increment, &kr.Weight)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key result: %w", err)
	}

	return &kr, nil
}

// UpdateGoalStatus transitions a goal's status, enforcing the one-directional
// state machine, and appends the supplied event in the same transaction.
func (s *SQLiteStorage) UpdateGoalStatus(ctx context.Context, id string, status types.GoalStatus, event *events.DomainEvent) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	goal, err := s.GetGoal(ctx, id)
	if err != nil {
		return err
	}
	if goal == nil {
		return types.NotFoundf("goal %s", id)
	}
	if goal.Status == status {
		return nil // Idempotent
	}
	if !goal.Status.CanTransitionTo(status) {
		return types.DomainViolationf("goal %s cannot transition from %s to %s", id, goal.Status, status)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return types.TransientStoref("failed to acquire connection: %v", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return types.TransientStoref("failed to begin immediate transaction: %v", err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	// Guard on the previous status so a concurrent transition loses cleanly.
	res, err := conn.ExecContext(ctx, `
		UPDATE goals SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, status, time.Now(), id, goal.Status)
	if err != nil {
		return fmt.Errorf("failed to update goal status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return types.TransientStoref("concurrent status change on goal %s", id)
	}

	if event != nil {
		if err := appendEventTx(ctx, conn, event); err != nil {
			return err
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return types.TransientStoref("failed to commit transaction: %v", err)
	}
	committed = true

	return nil
}

// ApplyKeyResultEvaluation updates a key result's current value if the
// (subscriber, event) pair has not been applied before. The idempotency
// mark and the value change commit in one transaction, so an at-least-once
// redelivery can never double-apply a contribution.
func (s *SQLiteStorage) ApplyKeyResultEvaluation(ctx context.Context, subscriber, eventID, keyResultID string, newValue float64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, types.TransientStoref("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO processed_events (subscriber, event_id)
		VALUES (?, ?)
		ON CONFLICT(subscriber, event_id) DO NOTHING
	`, subscriber, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check processed mark: %w", err)
	}
	if affected == 0 {
		return false, nil // Already applied
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE key_results SET current_value = ? WHERE id = ?
	`, newValue, keyResultID)
	if err != nil {
		return false, fmt.Errorf("failed to update key result value: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check key result update: %w", err)
	}
	if affected == 0 {
		return false, types.NotFoundf("key result %s", keyResultID)
	}

	if err := tx.Commit(); err != nil {
		return false, types.TransientStoref("failed to commit transaction: %v", err)
	}

	return true, nil
}

// CreateGoalSnapshot writes a snapshot if none exists for (goal, date).
// Returns false without touching the existing row when one already exists:
// snapshots are write-once and never recomputed.
func (s *SQLiteStorage) CreateGoalSnapshot(ctx context.Context, snapshot *types.GoalSnapshot) (bool, error) {
	if err := snapshot.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	valuesJSON, err := json.Marshal(snapshot.KeyResultValues)
	if err != nil {
		return false, fmt.Errorf("failed to marshal key result values: %w", err)
	}

	snapshot.CreatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO goal_snapshots (goal_id, owner_id, date, progress, key_result_values, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(goal_id, date) DO NOTHING
	`, snapshot.GoalID, snapshot.OwnerID, snapshot.Date.String(), snapshot.Progress, string(valuesJSON), snapshot.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert goal snapshot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot insert: %w", err)
	}

	return affected > 0, nil
}

// GetGoalSnapshot retrieves the snapshot for (goal, date), or nil if none exists
func (s *SQLiteStorage) GetGoalSnapshot(ctx context.Context, goalID string, date types.Date) (*types.GoalSnapshot, error) {
	return s.loadSnapshot(ctx, `WHERE goal_id = ? AND date = ?`, goalID, date.String())
}

// GetLatestGoalSnapshot retrieves the most recent snapshot for a goal, or nil
func (s *SQLiteStorage) GetLatestGoalSnapshot(ctx context.Context, goalID string) (*types.GoalSnapshot, error) {
	return s.loadSnapshot(ctx, `WHERE goal_id = ? ORDER BY date DESC LIMIT 1`, goalID)
}

func (s *SQLiteStorage) loadSnapshot(ctx context.Context, where string, args ...interface{}) (*types.GoalSnapshot, error) {
	var snap types.GoalSnapshot
	var dateStr, valuesJSON string

	query := `
		SELECT goal_id, owner_id, date, progress, key_result_values, created_at
		FROM goal_snapshots ` + where

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&snap.GoalID, &snap.OwnerID, &dateStr, &snap.Progress, &valuesJSON, &snap.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal snapshot: %w", err)
	}

	if snap.Date, err = types.ParseDate(dateStr); err != nil {
		return nil, fmt.Errorf("corrupt snapshot date: %w", err)
	}
	if err := json.Unmarshal([]byte(valuesJSON), &snap.KeyResultValues); err != nil {
		return nil, fmt.Errorf("corrupt snapshot values: %w", err)
	}

	return &snap, nil
}
