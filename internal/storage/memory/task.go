package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

type taskRepository struct {
	view   view
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

	err := r.view.write(func(st *state) error {
		st.tasks[t.ID] = t
		st.taskOrder = append(st.taskOrder, t.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return &t, nil
}

func (r *taskRepository) ListTasks(ctx context.Context, ownerID string, opts storage.ListTasksOptions) ([]model.Task, error) {
	tasks := []model.Task{}
	err := r.view.read(func(st *state) error {
		skipped := 0
		for _, id := range st.taskOrder {
			t := st.tasks[id]
			if t.OwnerID != ownerID {
				continue
			}
			if opts.Completed != nil && t.Completed != *opts.Completed {
				continue
			}
			if skipped < opts.Offset {
				skipped++
				continue
			}
			if opts.Limit > 0 && len(tasks) >= opts.Limit {
				break
			}
			tasks = append(tasks, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) GetTask(ctx context.Context, ownerID, id string) (*model.Task, error) {
	var t model.Task
	err := r.view.read(func(st *state) error {
		var err error
		t, err = getOwnedTask(st, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *taskRepository) UpdateTask(ctx context.Context, ownerID, id string, update model.TaskUpdate) (*model.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	return r.modify(ownerID, id, func(t *model.Task) {
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Description != nil {
			t.Description = strings.TrimSpace(*update.Description)
		}
	})
}

func (r *taskRepository) SetTaskCompleted(ctx context.Context, ownerID, id string, completed bool) (*model.Task, error) {
	return r.modify(ownerID, id, func(t *model.Task) {
		t.Completed = completed
	})
}

func (r *taskRepository) DeleteTask(ctx context.Context, ownerID, id string) error {
	err := r.view.write(func(st *state) error {
		if _, err := getOwnedTask(st, ownerID, id); err != nil {
			return err
		}

		delete(st.tasks, id)
		st.taskOrder = removeID(st.taskOrder, id)
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debugf("Deleted task from repository: %s", id)
	return nil
}

func (r *taskRepository) modify(ownerID, id string, f func(t *model.Task)) (*model.Task, error) {
	var t model.Task
	err := r.view.write(func(st *state) error {
		var err error
		t, err = getOwnedTask(st, ownerID, id)
		if err != nil {
			return err
		}

		f(&t)
		t.UpdatedAt = r.clock.Now()
		st.tasks[id] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("Updated task in repository: %s", id)
	return &t, nil
}

func getOwnedTask(st *state, ownerID, id string) (model.Task, error) {
	t, ok := st.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return model.Task{}, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return t, nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
