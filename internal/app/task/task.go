package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

// ServiceConfig is the configuration for the task service.
type ServiceConfig struct {
	Transactor storage.Transactor
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Transactor == nil {
		return fmt.Errorf("transactor is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Task"})

	return nil
}

// Service manages single owner tasks directly, without going through a chat turn.
// Each operation runs in its own unit of work.
type Service struct {
	tx     storage.Transactor
	logger log.Logger
}

// NewService creates a new task service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		tx:     cfg.Transactor,
		logger: cfg.Logger,
	}, nil
}

// CreateRequest represents the create request parameters.
type CreateRequest struct {
	OwnerID     string
	Title       string
	Description string
}

// Create creates a new pending task.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Task, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}

	var t *model.Task
	err := s.inUnit(ctx, func(repo storage.TaskRepository) error {
		var err error
		t, err = repo.CreateTask(ctx, req.OwnerID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description))
		if err != nil {
			return fmt.Errorf("could not create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithCtxValues(ctx).Infof("Task %s created", t.ID)
	return t, nil
}

// Get returns an owner task.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*model.Task, error) {
	if err := validateRef(ownerID, id); err != nil {
		return nil, err
	}

	var t *model.Task
	err := s.inUnit(ctx, func(repo storage.TaskRepository) error {
		var err error
		t, err = repo.GetTask(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("could not get task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// UpdateRequest represents the update request parameters, nil fields are left untouched.
type UpdateRequest struct {
	OwnerID     string
	ID          string
	Title       *string
	Description *string
	Completed   *bool
}

// Update modifies the task fields set on the request. A request without fields
// returns the task unchanged.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*model.Task, error) {
	if err := validateRef(req.OwnerID, req.ID); err != nil {
		return nil, err
	}

	update := model.TaskUpdate{Description: req.Description}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		update.Title = &title
	}

	var t *model.Task
	err := s.inUnit(ctx, func(repo storage.TaskRepository) error {
		var err error
		t, err = repo.GetTask(ctx, req.OwnerID, req.ID)
		if err != nil {
			return fmt.Errorf("could not get task: %w", err)
		}

		if !update.Empty() {
			t, err = repo.UpdateTask(ctx, req.OwnerID, req.ID, update)
			if err != nil {
				return fmt.Errorf("could not update task: %w", err)
			}
		}

		if req.Completed != nil && *req.Completed != t.Completed {
			t, err = repo.SetTaskCompleted(ctx, req.OwnerID, req.ID, *req.Completed)
			if err != nil {
				return fmt.Errorf("could not set task completion: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// SetCompleted sets the completion state of a task.
func (s *Service) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (*model.Task, error) {
	return s.Update(ctx, UpdateRequest{OwnerID: ownerID, ID: id, Completed: &completed})
}

// Delete removes an owner task.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := validateRef(ownerID, id); err != nil {
		return err
	}

	err := s.inUnit(ctx, func(repo storage.TaskRepository) error {
		if err := repo.DeleteTask(ctx, ownerID, id); err != nil {
			return fmt.Errorf("could not delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithCtxValues(ctx).Infof("Task %s deleted", id)
	return nil
}

func (s *Service) inUnit(ctx context.Context, f func(repo storage.TaskRepository) error) error {
	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin unit of work: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	if err := f(uow.Tasks()); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("could not commit unit of work: %w", err)
	}

	return nil
}

func validateRef(ownerID, id string) error {
	if ownerID == "" {
		return fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}
	return nil
}
