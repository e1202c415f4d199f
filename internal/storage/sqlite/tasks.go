package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dayfold/dayfold/internal/types"
)

// CreateTask creates a new task
func (s *SQLiteStorage) CreateTask(ctx context.Context, task *types.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	var keyResultID sql.NullString
	if task.KeyResultID != "" {
		keyResultID = sql.NullString{String: task.KeyResultID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, title, key_result_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, task.ID, task.OwnerID, task.Title, keyResultID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID, or nil if it does not exist
func (s *SQLiteStorage) GetTask(ctx context.Context, id string) (*types.Task, error) {
	var task types.Task
	var keyResultID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, key_result_id, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id).Scan(&task.ID, &task.OwnerID, &task.Title, &keyResultID, &task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if keyResultID.Valid {
		task.KeyResultID = keyResultID.String
	}

	return &task, nil
}

// UpdateTaskTitle updates a task's title. Title edits are the only mutation
// a task supports after creation.
func (s *SQLiteStorage) UpdateTaskTitle(ctx context.Context, id, title string) error {
	if len(title) == 0 || len(title) > 500 {
		return fmt.Errorf("title must be 1-500 characters")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, updated_at = ? WHERE id = ?
	`, title, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update task title: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return types.NotFoundf("task %s", id)
	}

	return nil
}

// ListTasks retrieves all tasks for an owner, newest first
func (s *SQLiteStorage) ListTasks(ctx context.Context, ownerID string) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, key_result_id, created_at, updated_at
		FROM tasks
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		var task types.Task
		var keyResultID sql.NullString
		if err := rows.Scan(&task.ID, &task.OwnerID, &task.Title, &keyResultID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if keyResultID.Valid {
			task.KeyResultID = keyResultID.String
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}
