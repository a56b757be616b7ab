package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/tool"
)

// JSONPrinter prints todochat information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type taskItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type conversationItem struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type turnItem struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type turnResponseOutput struct {
	ConversationID string                   `json:"conversation_id"`
	Response       string                   `json:"response"`
	ToolCalls      []tool.InvocationPayload `json:"tool_calls"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintTasks prints tasks in JSON format.
func (j *JSONPrinter) PrintTasks(tasks []model.Task) error {
	items := make([]taskItem, len(tasks))
	for i, t := range tasks {
		items[i] = taskItem{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt.UTC(),
			UpdatedAt:   t.UpdatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintConversations prints conversations in JSON format.
func (j *JSONPrinter) PrintConversations(convs []model.Conversation) error {
	items := make([]conversationItem, len(convs))
	for i, c := range convs {
		items[i] = conversationItem{
			ID:        c.ID,
			CreatedAt: c.CreatedAt.UTC(),
			UpdatedAt: c.UpdatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintTurns prints conversation turns in JSON format.
func (j *JSONPrinter) PrintTurns(turns []model.Turn) error {
	items := make([]turnItem, len(turns))
	for i, t := range turns {
		items[i] = turnItem{
			ID:        t.ID,
			Role:      string(t.Role),
			Content:   t.Content,
			CreatedAt: t.CreatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintTurnResponse prints a chat turn response in JSON format.
func (j *JSONPrinter) PrintTurnResponse(resp model.TurnResponse) error {
	return j.encode(turnResponseOutput{
		ConversationID: resp.ConversationID,
		Response:       resp.Reply,
		ToolCalls:      tool.NewInvocationPayloads(resp.ToolInvocations),
	})
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
