package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

const taskColumns = `id, owner_id, title, description, completed, created_at, updated_at`

type taskRepository struct {
	db     dbtx
	clock  clock.Clock
	logger log.Logger
}

var _ storage.TaskRepository = &taskRepository{}

func (r *taskRepository) CreateTask(ctx context.Context, ownerID, title, description string) (*model.Task, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}
	if err := model.ValidateTaskTitle(title); err != nil {
		return nil, err
	}
	if err := model.ValidateTaskDescription(description); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	t := model.Task{
		ID:          ulid.Make().String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.OwnerID, t.Title, t.Description, now.UnixNano(), now.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return nil, fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("could not insert task: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return &t, nil
}

func (r *taskRepository) ListTasks(ctx context.Context, ownerID string, opts storage.ListTasksOptions) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`
	args := []any{ownerID}
	if opts.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *opts.Completed)
	}
	query += ` ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?`
	limit := -1
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	args = append(args, limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

func (r *taskRepository) GetTask(ctx context.Context, ownerID, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return &t, nil
}

func (r *taskRepository) UpdateTask(ctx context.Context, ownerID, id string, update model.TaskUpdate) (*model.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	sets := []string{}
	args := []any{}
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*update.Description))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.clock.Now().UnixNano(), id, ownerID)

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	if err := r.exec(ctx, id, query, args...); err != nil {
		return nil, err
	}

	r.logger.Debugf("Updated task in repository: %s", id)
	return r.GetTask(ctx, ownerID, id)
}

func (r *taskRepository) SetTaskCompleted(ctx context.Context, ownerID, id string, completed bool) (*model.Task, error) {
	query := `UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ? AND owner_id = ?`
	if err := r.exec(ctx, id, query, completed, r.clock.Now().UnixNano(), id, ownerID); err != nil {
		return nil, err
	}

	r.logger.Debugf("Set task %s completed to %t", id, completed)
	return r.GetTask(ctx, ownerID, id)
}

func (r *taskRepository) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := r.exec(ctx, id, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	r.logger.Debugf("Deleted task from repository: %s", id)
	return nil
}

// exec runs a statement that must affect the task, otherwise it's reported as missing.
func (r *taskRepository) exec(ctx context.Context, id, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("could not write task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	return nil
}

func scanTask(s scanner) (model.Task, error) {
	var t model.Task
	var createdAt, updatedAt int64
	err := s.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
	}

	t.CreatedAt = timeFromUnixNano(createdAt)
	t.UpdatedAt = timeFromUnixNano(updatedAt)
	return t, nil
}
