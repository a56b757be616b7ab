package storage

import (
	"context"

	"github.com/slok/todochat/internal/model"
)

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name TaskRepository|ConversationRepository|UnitOfWork|Transactor

// ListTasksOptions are the options to list an owner's tasks.
type ListTasksOptions struct {
	// Completed filters by completion state when set.
	Completed *bool
	Offset    int
	// Limit of tasks returned, 0 means no limit.
	Limit int
}

// TaskRepository is the interface for task persistence. Every operation is scoped
// by owner, tasks of other owners are reported as model.ErrNotFound.
type TaskRepository interface {
	CreateTask(ctx context.Context, ownerID, title, description string) (*model.Task, error)
	// ListTasks returns the tasks in creation order.
	ListTasks(ctx context.Context, ownerID string, opts ListTasksOptions) ([]model.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, update model.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	SetTaskCompleted(ctx context.Context, ownerID, id string, completed bool) (*model.Task, error)
}

// ConversationRepository is the interface for conversation persistence.
type ConversationRepository interface {
	// GetOrCreateConversation returns the owner's conversation, if the ID is empty or
	// doesn't belong to the owner a new conversation is created.
	GetOrCreateConversation(ctx context.Context, ownerID, conversationID string) (*model.Conversation, error)
	GetConversation(ctx context.Context, ownerID, conversationID string) (*model.Conversation, error)
	// ListConversations returns the owner's conversations, most recent activity first.
	ListConversations(ctx context.Context, ownerID string) ([]model.Conversation, error)
	// ListTurns returns the conversation history in creation order.
	ListTurns(ctx context.Context, conversationID string) ([]model.Turn, error)
	// AppendTurn adds a turn at the end of the conversation and bumps its activity time.
	AppendTurn(ctx context.Context, conversationID, ownerID string, role model.Role, content string) (*model.Turn, error)
}

// UnitOfWork groups the repositories bound to a single transaction. Writes are
// visible through the unit repositories immediately and become durable on Commit.
type UnitOfWork interface {
	Tasks() TaskRepository
	Conversations() ConversationRepository
	// Savepoint marks a point RollbackTo can return to without discarding the
	// writes made before it.
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Commit() error
	// Rollback discards the unit, it's a no-op after Commit.
	Rollback() error
}

// Transactor starts units of work.
type Transactor interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
