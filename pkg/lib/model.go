package lib

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/llm/fake"
	"github.com/slok/todochat/internal/llm/gemini"
	"github.com/slok/todochat/internal/llm/openai"
	"github.com/slok/todochat/internal/model"
)

var (
	// ErrNotFound is returned when the requested conversation doesn't exist for the owner.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when the input is invalid.
	ErrNotValid = errors.New("not valid")
	// ErrPersistence is returned when the data could not be stored.
	ErrPersistence = errors.New("persistence failure")
)

// Model is a language model the assistant uses to decide what to do with each message.
type Model struct {
	client llm.Client
}

// OpenAIConfig configures an OpenAI compatible model.
type OpenAIConfig struct {
	// APIKey is required.
	APIKey string
	// BaseURL defaults to the Groq OpenAI compatible endpoint.
	BaseURL string
	// Model defaults to llama-3.1-8b-instant.
	Model string
}

// NewOpenAIModel returns an OpenAI compatible model.
func NewOpenAIModel(cfg OpenAIConfig) (Model, error) {
	c, err := openai.NewClient(openai.ClientConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return Model{}, mapError(err)
	}
	return Model{client: c}, nil
}

// GeminiConfig configures a Gemini model.
type GeminiConfig struct {
	// APIKey is required.
	APIKey string
	// Model defaults to gemini-2.5-flash.
	Model string
}

// NewGeminiModel returns a Gemini model.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (Model, error) {
	c, err := gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	})
	if err != nil {
		return Model{}, mapError(err)
	}
	return Model{client: c}, nil
}

// NewRuleBasedModel returns an offline model that maps a few phrasings
// ("add ...", "show my tasks", "complete 1", "delete 2", "rename 1 to ...") to tools.
func NewRuleBasedModel() Model {
	return Model{client: fake.NewRules()}
}

// Task is a todo list item.
type Task struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Conversation is a recorded chat between an owner and the assistant.
type Conversation struct {
	ID        string
	CreatedAt time.Time
	// UpdatedAt is the last activity.
	UpdatedAt time.Time
}

// Message is a single message of a conversation.
type Message struct {
	ID string
	// Role is "user" or "assistant".
	Role      string
	Content   string
	CreatedAt time.Time
}

// ToolCall is a tool the assistant executed during a chat turn.
type ToolCall struct {
	Tool      string
	Arguments map[string]any
	// Status is the outcome, "failed" when Error is set.
	Status string
	Error  string
	// Task is the affected task, if any.
	Task *Task
	// Tasks is set by list_tasks.
	Tasks []Task
}

// ChatResponse is the outcome of a chat turn.
type ChatResponse struct {
	ConversationID string
	Reply          string
	ToolCalls      []ToolCall
}

func fromInternalTask(t model.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromInternalSnapshot(s model.TaskSnapshot) Task {
	return Task{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Completed:   s.Completed,
		CreatedAt:   s.CreatedAt,
	}
}

func fromInternalTurnResponse(r model.TurnResponse) *ChatResponse {
	calls := make([]ToolCall, 0, len(r.ToolInvocations))
	for _, inv := range r.ToolInvocations {
		call := ToolCall{
			Tool:      string(inv.Tool),
			Arguments: map[string]any(inv.Arguments),
			Status:    string(inv.Result.Status),
			Error:     inv.Result.Error,
		}
		if inv.Result.Task != nil {
			t := fromInternalSnapshot(*inv.Result.Task)
			call.Task = &t
		}
		for _, s := range inv.Result.Tasks {
			call.Tasks = append(call.Tasks, fromInternalSnapshot(s))
		}
		calls = append(calls, call)
	}

	return &ChatResponse{
		ConversationID: r.ConversationID,
		Reply:          r.Reply,
		ToolCalls:      calls,
	}
}

// mapError keeps the internal error message and makes it match the SDK sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, model.ErrNotValid):
		return fmt.Errorf("%w: %w", ErrNotValid, err)
	case errors.Is(err, model.ErrPersistence):
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	default:
		return err
	}
}
