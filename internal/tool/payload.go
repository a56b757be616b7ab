package tool

import (
	"encoding/json"
	"time"

	"github.com/slok/todochat/internal/model"
)

// InvocationPayload is the wire form of an executed tool invocation.
type InvocationPayload struct {
	Tool   string              `json:"tool"`
	Args   model.ToolArguments `json:"args"`
	Result ResultPayload       `json:"result"`
}

// ResultPayload is the wire form of a tool result. Failed results only carry the error.
type ResultPayload struct {
	Error  string `json:"error,omitempty"`
	TaskID string `json:"task_id,omitempty"`
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	// Description is only set for created and updated tasks, a JSON null when the task has none.
	Description json.RawMessage `json:"description,omitempty"`
	Tasks       *[]TaskPayload  `json:"tasks,omitempty"`
}

// TaskPayload is the wire form of a listed task.
type TaskPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewInvocationPayloads maps invocations to their wire form, it never returns nil.
func NewInvocationPayloads(invocations []model.ToolInvocation) []InvocationPayload {
	ps := make([]InvocationPayload, 0, len(invocations))
	for _, inv := range invocations {
		args := inv.Arguments
		if args == nil {
			args = model.ToolArguments{}
		}
		ps = append(ps, InvocationPayload{
			Tool:   string(inv.Tool),
			Args:   args,
			Result: NewResultPayload(inv.Tool, inv.Result),
		})
	}
	return ps
}

// NewResultPayload maps a tool result to its wire form.
func NewResultPayload(name model.ToolName, r model.ToolResult) ResultPayload {
	if r.Failed() {
		return ResultPayload{Error: r.Error}
	}

	if name == model.ToolListTasks {
		tasks := make([]TaskPayload, 0, len(r.Tasks))
		for _, t := range r.Tasks {
			tasks = append(tasks, TaskPayload{
				ID:          t.ID,
				Title:       t.Title,
				Description: optional(t.Description),
				Completed:   t.Completed,
				CreatedAt:   t.CreatedAt.UTC(),
			})
		}
		return ResultPayload{Status: string(r.Status), Tasks: &tasks}
	}

	p := ResultPayload{Status: string(r.Status)}
	if r.Task != nil {
		p.TaskID = r.Task.ID
		p.Title = r.Task.Title
		if name == model.ToolAddTask || name == model.ToolUpdateTask {
			p.Description = descriptionJSON(r.Task.Description)
		}
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func descriptionJSON(desc string) json.RawMessage {
	if desc == "" {
		return json.RawMessage("null")
	}
	b, err := json.Marshal(desc)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
