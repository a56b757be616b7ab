package lib

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/todochat/internal/agent"
	"github.com/slok/todochat/internal/app/chat"
	"github.com/slok/todochat/internal/app/conversation"
	"github.com/slok/todochat/internal/app/tasklist"
	"github.com/slok/todochat/internal/conventions"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
	"github.com/slok/todochat/internal/storage/memory"
	"github.com/slok/todochat/internal/storage/sqlite"
)

// Config configures the SDK client.
type Config struct {
	// Model is the language model, required.
	Model Model

	// DBPath is the SQLite database path.
	// Default: ~/.todochat/todochat.db.
	DBPath string

	// InMemory keeps the data in memory instead of SQLite, DBPath is ignored.
	InMemory bool

	// SystemPrompt overrides the assistant instructions.
	SystemPrompt string

	// Temperature of the model, nil uses the provider default.
	Temperature *float64

	// Timeout of each model call, expired calls get an apology reply.
	// Default: 60s.
	Timeout time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Model.client == nil {
		return fmt.Errorf("model is required")
	}

	if c.DBPath == "" {
		c.DBPath = conventions.DefaultDBPath()
	}

	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

type store interface {
	storage.Transactor
	Tasks() storage.TaskRepository
	Conversations() storage.ConversationRepository
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	chat          *chat.Service
	conversations *conversation.Service
	tasks         *tasklist.Service
	closeFn       func() error
}

// New creates a new SDK client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w: %w", ErrNotValid, err)
	}

	var (
		st      store
		closeFn = func() error { return nil }
	)
	if cfg.InMemory {
		s, err := memory.NewStore(memory.StoreConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create memory store: %w", err)
		}
		st = s
	} else {
		s, err := sqlite.NewStore(ctx, sqlite.StoreConfig{DBPath: cfg.DBPath, Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create sqlite store: %w", err)
		}
		st = s
		closeFn = s.Close
	}

	orchestrator, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		Model: cfg.Model.client,
		AgentConfig: model.AgentConfig{
			Temperature:  cfg.Temperature,
			SystemPrompt: cfg.SystemPrompt,
		},
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create orchestrator: %w", err)
	}

	chatSvc, err := chat.NewService(chat.ServiceConfig{Transactor: st, Runner: orchestrator, Logger: cfg.Logger})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create chat service: %w", err)
	}

	convSvc, err := conversation.NewService(conversation.ServiceConfig{Repository: st.Conversations(), Logger: cfg.Logger})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create conversation service: %w", err)
	}

	taskSvc, err := tasklist.NewService(tasklist.ServiceConfig{Repository: st.Tasks(), Logger: cfg.Logger})
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("could not create task service: %w", err)
	}

	return &Client{
		chat:          chatSvc,
		conversations: convSvc,
		tasks:         taskSvc,
		closeFn:       closeFn,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// ChatOpts are the options of a chat turn.
type ChatOpts struct {
	OwnerID string
	// ConversationID continues a conversation, empty starts a new one.
	ConversationID string
	Message        string
}

// Chat sends a message to the assistant. When the turn ran but could not be
// recorded the response is returned together with an [ErrPersistence] error.
func (c *Client) Chat(ctx context.Context, opts ChatOpts) (*ChatResponse, error) {
	resp, err := c.chat.Run(ctx, chat.Request{
		OwnerID:        opts.OwnerID,
		ConversationID: opts.ConversationID,
		Message:        opts.Message,
	})
	if resp == nil {
		return nil, mapError(err)
	}

	return fromInternalTurnResponse(*resp), mapError(err)
}

// ListTasksOpts are the options to list tasks.
type ListTasksOpts struct {
	// Completed filters by completion state when set.
	Completed *bool
	Offset    int
	// Limit of tasks, 0 means all.
	Limit int
}

// ListTasks returns the owner tasks in creation order.
func (c *Client) ListTasks(ctx context.Context, ownerID string, opts *ListTasksOpts) ([]Task, error) {
	req := tasklist.Request{OwnerID: ownerID}
	if opts != nil {
		req.Completed = opts.Completed
		req.Offset = opts.Offset
		req.Limit = opts.Limit
	}

	tasks, err := c.tasks.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, fromInternalTask(t))
	}
	return out, nil
}

// ListConversations returns the owner conversations, most recent activity first.
func (c *Client) ListConversations(ctx context.Context, ownerID string) ([]Conversation, error) {
	convs, err := c.conversations.List(ctx, conversation.ListRequest{OwnerID: ownerID})
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]Conversation, 0, len(convs))
	for _, cv := range convs {
		out = append(out, Conversation{ID: cv.ID, CreatedAt: cv.CreatedAt, UpdatedAt: cv.UpdatedAt})
	}
	return out, nil
}

// ConversationMessages returns the messages of an owner conversation, oldest first.
func (c *Client) ConversationMessages(ctx context.Context, ownerID, conversationID string) ([]Message, error) {
	turns, err := c.conversations.Messages(ctx, conversation.MessagesRequest{
		OwnerID:        ownerID,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, Message{ID: t.ID, Role: string(t.Role), Content: t.Content, CreatedAt: t.CreatedAt})
	}
	return out, nil
}
