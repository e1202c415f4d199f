package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/dayfold/dayfold/internal/types"
)

// CreateNudge persists a nudge. Nudges are non-authoritative: nothing in
// the domain reads them back as a source of state.
func (s *SQLiteStorage) CreateNudge(ctx context.Context, nudge *types.Nudge) error {
	if err := nudge.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	nudge.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nudges (id, owner_id, type, message, scheduled_for, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, nudge.ID, nudge.OwnerID, nudge.Type, nudge.Message, nudge.ScheduledFor, nudge.Status, nudge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert nudge: %w", err)
	}

	return nil
}

// ListNudges retrieves an owner's nudges, optionally filtered by status,
// newest first.
func (s *SQLiteStorage) ListNudges(ctx context.Context, ownerID string, status types.NudgeStatus) ([]*types.Nudge, error) {
	query := `
		SELECT id, owner_id, type, message, scheduled_for, status, created_at
		FROM nudges
		WHERE owner_id = ?
	`
	args := []interface{}{ownerID}

	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nudges: %w", err)
	}
	defer rows.Close()

	var nudges []*types.Nudge
	for rows.Next() {
		var n types.Nudge
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Type, &n.Message, &n.ScheduledFor, &n.Status, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan nudge: %w", err)
		}
		nudges = append(nudges, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nudge rows: %w", err)
	}

	return nudges, nil
}

// UpdateNudgeStatus updates a nudge's delivery status
func (s *SQLiteStorage) UpdateNudgeStatus(ctx context.Context, id string, status types.NudgeStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE nudges SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update nudge status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return types.NotFoundf("nudge %s", id)
	}

	return nil
}

// DeleteNudges removes all of an owner's nudges, returning the count
// deleted. Domain truth is unaffected by construction: no other table
// references nudges.
func (s *SQLiteStorage) DeleteNudges(ctx context.Context, ownerID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nudges WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete nudges: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}

	return int(affected), nil
}
