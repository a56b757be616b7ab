package tasklist

import (
	"context"
	"fmt"

	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

// ServiceConfig is the configuration for the task list service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists an owner tasks with optional filtering.
type Service struct {
	repo   storage.TaskRepository
	logger log.Logger
}

// NewService creates a new task list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	OwnerID string
	// Completed is an optional filter to only show tasks with this completion state.
	Completed *bool
	Offset    int
	Limit     int
}

// Run lists the owner tasks in creation order.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Task, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}
	if req.Offset < 0 || req.Limit < 0 {
		return nil, fmt.Errorf("offset and limit can't be negative: %w", model.ErrNotValid)
	}

	s.logger.Debugf("listing tasks with filter: %v", req.Completed)

	tasks, err := s.repo.ListTasks(ctx, req.OwnerID, storage.ListTasksOptions{
		Completed: req.Completed,
		Offset:    req.Offset,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	s.logger.Debugf("found %d tasks", len(tasks))
	return tasks, nil
}
