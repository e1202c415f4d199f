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

// SaveDailyPlan persists a daily plan, its entries, and (when supplied) the
// domain event describing the mutation, all in one transaction. Structure
// and fact commit together or not at all.
//
// Optimistic concurrency: Version 0 means create; a positive Version must
// match the stored row or the write fails with a retryable conflict. The
// update predicate also requires closed = 0, so a closed plan row can never
// be rewritten even by a buggy caller.
func (s *SQLiteStorage) SaveDailyPlan(ctx context.Context, plan *types.DailyPlan, event *events.DomainEvent) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	plan.UpdatedAt = now

	// Acquire a dedicated connection so BEGIN IMMEDIATE and COMMIT run on
	// the same connection; database/sql's pool would otherwise split them.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return types.TransientStoref("failed to acquire connection: %v", err)
	}
	defer conn.Close()

	// IMMEDIATE acquires the write lock up front, serializing concurrent
	// writers on the same database.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return types.TransientStoref("failed to begin immediate transaction: %v", err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if plan.Version == 0 {
		plan.CreatedAt = now
		_, err = conn.ExecContext(ctx, `
			INSERT INTO daily_plans (id, owner_id, date, closed, closed_at, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		`, plan.ID, plan.OwnerID, plan.Date.String(), plan.Closed, plan.ClosedAt, plan.CreatedAt, plan.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert daily plan: %w", err)
		}
		plan.Version = 1
	} else {
		res, err := conn.ExecContext(ctx, `
			UPDATE daily_plans
			SET closed = ?, closed_at = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ? AND closed = 0
		`, plan.Closed, plan.ClosedAt, plan.UpdatedAt, plan.ID, plan.Version)
		if err != nil {
			return fmt.Errorf("failed to update daily plan: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if affected == 0 {
			return types.TransientStoref("concurrent update of daily plan %s (version %d)", plan.ID, plan.Version)
		}
		plan.Version++

		// Entries are owned by the plan: replace wholesale.
		if _, err := conn.ExecContext(ctx, `DELETE FROM plan_entries WHERE plan_id = ?`, plan.ID); err != nil {
			return fmt.Errorf("failed to clear plan entries: %w", err)
		}
	}

	for i, e := range plan.Entries {
		_, err = conn.ExecContext(ctx, `
			INSERT INTO plan_entries (plan_id, task_id, status, completed_at, position)
			VALUES (?, ?, ?, ?, ?)
		`, plan.ID, e.TaskID, e.Status, e.CompletedAt, i)
		if err != nil {
			return fmt.Errorf("failed to insert plan entry %s: %w", e.TaskID, err)
		}
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

// GetDailyPlan retrieves a daily plan by ID, or nil if it does not exist
func (s *SQLiteStorage) GetDailyPlan(ctx context.Context, id string) (*types.DailyPlan, error) {
	return s.loadPlan(ctx, `WHERE id = ?`, id)
}

// FindDailyPlan retrieves the plan for (owner, date), or nil if none exists
func (s *SQLiteStorage) FindDailyPlan(ctx context.Context, ownerID string, date types.Date) (*types.DailyPlan, error) {
	return s.loadPlan(ctx, `WHERE owner_id = ? AND date = ?`, ownerID, date.String())
}

func (s *SQLiteStorage) loadPlan(ctx context.Context, where string, args ...interface{}) (*types.DailyPlan, error) {
	var plan types.DailyPlan
	var dateStr string
	var closedAt sql.NullTime

	query := `
		SELECT id, owner_id, date, closed, closed_at, version, created_at, updated_at
		FROM daily_plans ` + where

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&plan.ID, &plan.OwnerID, &dateStr, &plan.Closed, &closedAt,
		&plan.Version, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily plan: %w", err)
	}

	plan.Date, err = types.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt plan date: %w", err)
	}
	if closedAt.Valid {
		plan.ClosedAt = &closedAt.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, status, completed_at
		FROM plan_entries
		WHERE plan_id = ?
		ORDER BY position ASC
	`, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry types.PlanEntry
		var completedAt sql.NullTime
		if err := rows.Scan(&entry.TaskID, &entry.Status, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		if completedAt.Valid {
			entry.CompletedAt = &completedAt.Time
		}
		plan.Entries = append(plan.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan entries: %w", err)
	}

	return &plan, nil
}

// SaveWeeklyPlan persists a weekly plan mapping (upsert on owner and week
// start) and appends the supplied event in the same transaction.
func (s *SQLiteStorage) SaveWeeklyPlan(ctx context.Context, plan *types.WeeklyPlan, event *events.DomainEvent) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	daysJSON, err := marshalDays(plan.Days)
	if err != nil {
		return fmt.Errorf("failed to marshal weekly plan days: %w", err)
	}

	now := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

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

	_, err = conn.ExecContext(ctx, `
		INSERT INTO weekly_plans (id, owner_id, week_start, days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, week_start) DO UPDATE SET
			days = excluded.days,
			updated_at = excluded.updated_at
	`, plan.ID, plan.OwnerID, plan.WeekStart.String(), daysJSON, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save weekly plan: %w", err)
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

// GetWeeklyPlan retrieves a weekly plan by ID, or nil if it does not exist
func (s *SQLiteStorage) GetWeeklyPlan(ctx context.Context, id string) (*types.WeeklyPlan, error) {
	return s.loadWeeklyPlan(ctx, `WHERE id = ?`, id)
}

// FindWeeklyPlan retrieves the plan for (owner, weekStart), or nil if none exists
func (s *SQLiteStorage) FindWeeklyPlan(ctx context.Context, ownerID string, weekStart types.Date) (*types.WeeklyPlan, error) {
	return s.loadWeeklyPlan(ctx, `WHERE owner_id = ? AND week_start = ?`, ownerID, weekStart.String())
}

func (s *SQLiteStorage) loadWeeklyPlan(ctx context.Context, where string, args ...interface{}) (*types.WeeklyPlan, error) {
	var plan types.WeeklyPlan
	var weekStartStr, daysJSON string

	query := `
		SELECT id, owner_id, week_start, days, created_at, updated_at
		FROM weekly_plans ` + where

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&plan.ID, &plan.OwnerID, &weekStartStr, &daysJSON, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}

	plan.WeekStart, err = types.ParseDate(weekStartStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt week start: %w", err)
	}
	plan.Days, err = unmarshalDays(daysJSON)
	if err != nil {
		return nil, fmt.Errorf("corrupt weekly plan days: %w", err)
	}

	return &plan, nil
}

// marshalDays serializes the weekday grid with integer weekday keys.
func marshalDays(days map[time.Weekday][]string) (string, error) {
	m := make(map[string][]string, len(days))
	for day, taskIDs := range days {
		m[fmt.Sprintf("%d", int(day))] = taskIDs
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalDays(daysJSON string) (map[time.Weekday][]string, error) {
	var m map[string][]string
	if err := json.Unmarshal([]byte(daysJSON), &m); err != nil {
		return nil, err
	}
	days := make(map[time.Weekday][]string, len(m))
	for key, taskIDs := range m {
		var day int
		if _, err := fmt.Sscanf(key, "%d", &day); err != nil {
			return nil, fmt.Errorf("invalid weekday key %q: %w", key, err)
		}
		days[time.Weekday(day)] = taskIDs
	}
	return days, nil
}
