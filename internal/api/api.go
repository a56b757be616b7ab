package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slok/todochat/internal/app/chat"
	"github.com/slok/todochat/internal/app/conversation"
	"github.com/slok/todochat/internal/app/task"
	"github.com/slok/todochat/internal/app/tasklist"
	"github.com/slok/todochat/internal/auth"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
)

// maxBodySize is the max size of a request body.
const maxBodySize = 1 << 20

// ChatService runs chat turns.
type ChatService interface {
	Run(ctx context.Context, req chat.Request) (*model.TurnResponse, error)
}

// ConversationService reads conversations.
type ConversationService interface {
	List(ctx context.Context, req conversation.ListRequest) ([]model.Conversation, error)
	Messages(ctx context.Context, req conversation.MessagesRequest) ([]model.Turn, error)
}

// TaskService manages single tasks.
type TaskService interface {
	Create(ctx context.Context, req task.CreateRequest) (*model.Task, error)
	Get(ctx context.Context, ownerID, id string) (*model.Task, error)
	Update(ctx context.Context, req task.UpdateRequest) (*model.Task, error)
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TaskListService lists tasks.
type TaskListService interface {
	Run(ctx context.Context, req tasklist.Request) ([]model.Task, error)
}

// HandlerConfig is the configuration for the HTTP API handler.
type HandlerConfig struct {
	Chat          ChatService
	Conversations ConversationService
	// Tasks and TaskList enable the task endpoints, both or none must be set.
	Tasks         TaskService
	TaskList      TaskListService
	Authenticator auth.Authenticator
	Logger        log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.Chat == nil {
		return fmt.Errorf("chat service is required")
	}
	if c.Conversations == nil {
		return fmt.Errorf("conversation service is required")
	}
	if (c.Tasks == nil) != (c.TaskList == nil) {
		return fmt.Errorf("task and task list services must be set together")
	}
	if c.Authenticator == nil {
		c.Authenticator = auth.NewHeaderAuthenticator("")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.Handler"})
	return nil
}

type handler struct {
	chat          ChatService
	conversations ConversationService
	tasks         TaskService
	taskList      TaskListService
	authn         auth.Authenticator
	logger        log.Logger
}

// NewHandler returns the HTTP API handler.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	h := handler{
		chat:          cfg.Chat,
		conversations: cfg.Conversations,
		tasks:         cfg.Tasks,
		taskList:      cfg.TaskList,
		authn:         cfg.Authenticator,
		logger:        cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("POST /api/chat", h.authenticated(h.handleChat))
	mux.Handle("GET /api/conversations", h.authenticated(h.handleConversationList))
	mux.Handle("GET /api/conversations/{id}/messages", h.authenticated(h.handleConversationMessages))
	if h.tasks != nil {
		mux.Handle("GET /api/tasks", h.authenticated(h.handleTaskList))
		mux.Handle("POST /api/tasks", h.authenticated(h.handleTaskCreate))
		mux.Handle("GET /api/tasks/{id}", h.authenticated(h.handleTaskGet))
		mux.Handle("PUT /api/tasks/{id}", h.authenticated(h.handleTaskUpdate))
		mux.Handle("DELETE /api/tasks/{id}", h.authenticated(h.handleTaskDelete))
		mux.Handle("PATCH /api/tasks/{id}/complete", h.authenticated(h.handleTaskComplete))
	}

	var root http.Handler = mux
	root = bodySizeMiddleware(root)
	root = h.loggingMiddleware(root)
	root = h.recoveryMiddleware(root)
	root = h.requestIDMiddleware(root)

	return root, nil
}

func (h handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
