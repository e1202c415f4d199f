package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dayfold/dayfold/internal/events"
)

// AppendEvent stores a new domain event. The log is append-only: domain
// operations never update or delete rows here.
func (s *SQLiteStorage) AppendEvent(ctx context.Context, event *events.DomainEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO domain_events (id, type, owner_id, occurred_at, data)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.Type, event.OwnerID, event.OccurredAt, string(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to append event (type=%s, owner=%s): %w", event.Type, event.OwnerID, err)
	}

	return nil
}

// appendEventTx appends an event on an open transaction connection, so an
// entity write and its fact commit atomically.
func appendEventTx(ctx context.Context, conn *sql.Conn, event *events.DomainEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO domain_events (id, type, owner_id, occurred_at, data)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.Type, event.OwnerID, event.OccurredAt, string(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to append event (type=%s, owner=%s): %w", event.Type, event.OwnerID, err)
	}

	return nil
}

// GetEvents retrieves events matching the given filter, most recent first
func (s *SQLiteStorage) GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.DomainEvent, error) {
	query := `
		SELECT id, type, owner_id, occurred_at, data
		FROM domain_events
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.OwnerID != "" {
		query += " AND owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if !filter.AfterTime.IsZero() {
		query += " AND occurred_at > ?"
		args = append(args, filter.AfterTime)
	}
	if !filter.BeforeTime.IsZero() {
		query += " AND occurred_at < ?"
		args = append(args, filter.BeforeTime)
	}

	query += " ORDER BY occurred_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query domain events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetRecentEvents retrieves the most recent events for an owner up to limit
func (s *SQLiteStorage) GetRecentEvents(ctx context.Context, ownerID string, limit int) ([]*events.DomainEvent, error) {
	return s.GetEvents(ctx, events.EventFilter{OwnerID: ownerID, Limit: limit})
}

// CleanupEventsByAge deletes events older than retentionDays in batches,
// returning the number deleted. This is the only sanctioned delete path on
// the event log; it trims history past the replay horizon, never recent facts.
func (s *SQLiteStorage) CleanupEventsByAge(ctx context.Context, retentionDays, batchSize int) (int, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention_days must be at least 1 (got %d)", retentionDays)
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch_size must be at least 1 (got %d)", batchSize)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	total := 0

	for {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM domain_events
			WHERE id IN (
				SELECT id FROM domain_events
				WHERE occurred_at < ?
				ORDER BY occurred_at ASC
				LIMIT ?
			)
		`, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to delete old events: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to check delete result: %w", err)
		}
		total += int(affected)
		if affected < int64(batchSize) {
			return total, nil
		}
	}
}

func scanEvents(rows *sql.Rows) ([]*events.DomainEvent, error) {
	var result []*events.DomainEvent

	for rows.Next() {
		var event events.DomainEvent
		var dataJSON string

		err := rows.Scan(&event.ID, &event.Type, &event.OwnerID, &event.OccurredAt, &dataJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan domain event: %w", err)
		}

		event.Data = make(map[string]interface{})
		if dataJSON != "" && dataJSON != "{}" {
			if err := json.Unmarshal([]byte(dataJSON), &event.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}

		result = append(result, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domain event rows: %w", err)
	}

	return result, nil
}
