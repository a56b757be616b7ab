package conversation

import (
	"context"
	"fmt"

	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

// ServiceConfig is the configuration for the conversation service.
type ServiceConfig struct {
	Repository storage.ConversationRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Conversation"})
	return nil
}

// Service reads the owners conversations.
type Service struct {
	repo   storage.ConversationRepository
	logger log.Logger
}

// NewService creates a new conversation service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// ListRequest represents the list request parameters.
type ListRequest struct {
	OwnerID string
}

// List returns the owner conversations, most recent activity first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]model.Conversation, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}

	convs, err := s.repo.ListConversations(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not list conversations: %w", err)
	}

	s.logger.Debugf("found %d conversations", len(convs))
	return convs, nil
}

// MessagesRequest represents the messages request parameters.
type MessagesRequest struct {
	OwnerID        string
	ConversationID string
}

// Messages returns the turns of an owner conversation, oldest first.
func (s *Service) Messages(ctx context.Context, req MessagesRequest) ([]model.Turn, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}
	if req.ConversationID == "" {
		return nil, fmt.Errorf("conversation is required: %w", model.ErrNotValid)
	}

	// Ownership check, the history is not owner scoped.
	if _, err := s.repo.GetConversation(ctx, req.OwnerID, req.ConversationID); err != nil {
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}

	turns, err := s.repo.ListTurns(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("could not list turns: %w", err)
	}

	return turns, nil
}
