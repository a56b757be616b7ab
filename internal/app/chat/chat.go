package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/todochat/internal/agent"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

const (
	savepointTools = "tools"
	savepointTurns = "turns"
)

// TurnRunner runs a chat turn.
type TurnRunner interface {
	Run(ctx context.Context, in agent.TurnInput) agent.TurnOutput
}

// ServiceConfig is the configuration for the chat service.
type ServiceConfig struct {
	Transactor storage.Transactor
	Runner     TurnRunner
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Transactor == nil {
		return fmt.Errorf("transactor is required")
	}
	if c.Runner == nil {
		return fmt.Errorf("turn runner is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Chat"})
	return nil
}

// Service handles the chat turns of the owners, loading and recording their conversations.
type Service struct {
	tx     storage.Transactor
	runner TurnRunner
	logger log.Logger
}

// NewService creates a new chat service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		tx:     cfg.Transactor,
		runner: cfg.Runner,
		logger: cfg.Logger,
	}, nil
}

// Request represents a chat turn request.
type Request struct {
	OwnerID string
	// ConversationID continues a conversation, empty or not owned starts a new one.
	ConversationID string
	Message        string
}

func (r Request) validate() error {
	if r.OwnerID == "" {
		return fmt.Errorf("owner is required: %w", model.ErrNotValid)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is required: %w", model.ErrNotValid)
	}
	return nil
}

// Run runs a chat turn. Tool effects and the two new turns are committed together.
//
// When the turns can't be recorded the tool effects are still committed, and the
// response is returned together with a model.ErrPersistence error.
func (s *Service) Run(ctx context.Context, req Request) (*model.TurnResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx = s.logger.SetValuesOnCtx(ctx, log.Kv{"owner": req.OwnerID})
	logger := s.logger.WithCtxValues(ctx)

	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not begin unit of work: %w: %w", model.ErrPersistence, err)
	}
	defer func() {
		if err := uow.Rollback(); err != nil {
			logger.Errorf("Could not rollback unit of work: %s", err)
		}
	}()

	conv, err := uow.Conversations().GetOrCreateConversation(ctx, req.OwnerID, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("could not get conversation: %w: %w", model.ErrPersistence, err)
	}
	if req.ConversationID != "" && conv.ID != req.ConversationID {
		logger.Warningf("Conversation %q not found for owner, started %s", req.ConversationID, conv.ID)
	}

	history, err := uow.Conversations().ListTurns(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get conversation history: %w: %w", model.ErrPersistence, err)
	}

	if err := uow.Savepoint(ctx, savepointTools); err != nil {
		return nil, fmt.Errorf("could not create savepoint: %w: %w", model.ErrPersistence, err)
	}

	out := s.runner.Run(ctx, agent.TurnInput{
		OwnerID: req.OwnerID,
		History: history,
		Message: req.Message,
		Tasks:   uow.Tasks(),
	})

	// Degraded turns keep no tool effects.
	if out.Degraded {
		if err := uow.RollbackTo(ctx, savepointTools); err != nil {
			return nil, fmt.Errorf("could not discard degraded turn: %w: %w", model.ErrPersistence, err)
		}
	}

	resp := &model.TurnResponse{
		ConversationID:  conv.ID,
		Reply:           out.Reply,
		ToolInvocations: out.ToolInvocations,
	}

	if err := uow.Savepoint(ctx, savepointTurns); err != nil {
		return nil, fmt.Errorf("could not create savepoint: %w: %w", model.ErrPersistence, err)
	}

	if appendErr := s.appendTurns(ctx, uow, conv.ID, req.OwnerID, req.Message, out.Reply); appendErr != nil {
		logger.Errorf("Could not record turns, keeping tool effects: %s", appendErr)
		if err := uow.RollbackTo(ctx, savepointTurns); err != nil {
			return resp, fmt.Errorf("could not rollback turns: %w: %w", model.ErrPersistence, err)
		}
		if err := uow.Commit(); err != nil {
			return resp, fmt.Errorf("could not commit tool effects: %w: %w", model.ErrPersistence, err)
		}
		return resp, fmt.Errorf("could not record turns: %w: %w", model.ErrPersistence, appendErr)
	}

	if err := uow.Commit(); err != nil {
		return resp, fmt.Errorf("could not commit turn: %w: %w", model.ErrPersistence, err)
	}

	logger.Debugf("Turn recorded on conversation %s", conv.ID)
	return resp, nil
}

func (s *Service) appendTurns(ctx context.Context, uow storage.UnitOfWork, conversationID, ownerID, message, reply string) error {
	if _, err := uow.Conversations().AppendTurn(ctx, conversationID, ownerID, model.RoleUser, message); err != nil {
		return fmt.Errorf("could not append user turn: %w", err)
	}
	if _, err := uow.Conversations().AppendTurn(ctx, conversationID, ownerID, model.RoleAssistant, reply); err != nil {
		return fmt.Errorf("could not append assistant turn: %w", err)
	}
	return nil
}
