package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ToolName is the name of an operation the language model can request.
type ToolName string

const (
	ToolAddTask      ToolName = "add_task"
	ToolListTasks    ToolName = "list_tasks"
	ToolCompleteTask ToolName = "complete_task"
	ToolDeleteTask   ToolName = "delete_task"
	ToolUpdateTask   ToolName = "update_task"
)

// ToolNames returns all the tool names in catalog order.
func ToolNames() []ToolName {
	return []ToolName{ToolAddTask, ToolListTasks, ToolCompleteTask, ToolDeleteTask, ToolUpdateTask}
}

// ParseToolName returns the tool name for a raw name.
func ParseToolName(name string) (ToolName, error) {
	for _, n := range ToolNames() {
		if string(n) == name {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q: %w", name, ErrNotValid)
}

// ToolArguments are the arguments of a tool invocation, as sent by the model.
type ToolArguments map[string]any

// String returns the argument as a string. Integral numbers are accepted
// because models often send task numbers unquoted.
func (a ToolArguments) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}

	switch vv := v.(type) {
	case string:
		return vv, true
	case json.Number:
		return vv.String(), true
	case float64:
		if vv == math.Trunc(vv) {
			return strconv.FormatInt(int64(vv), 10), true
		}
		return strconv.FormatFloat(vv, 'f', -1, 64), true
	case int:
		return strconv.Itoa(vv), true
	case int64:
		return strconv.FormatInt(vv, 10), true
	}

	return "", false
}

// ToolStatus is the outcome of a tool invocation.
type ToolStatus string

const (
	ToolStatusCreated   ToolStatus = "created"
	ToolStatusListed    ToolStatus = "listed"
	ToolStatusCompleted ToolStatus = "completed"
	ToolStatusDeleted   ToolStatus = "deleted"
	ToolStatusUpdated   ToolStatus = "updated"
	ToolStatusFailed    ToolStatus = "failed"
)

// TaskSnapshot is the view of a task returned in tool results.
type TaskSnapshot struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// NewTaskSnapshot returns the snapshot of a task.
func NewTaskSnapshot(t Task) TaskSnapshot {
	return TaskSnapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
	}
}

// ToolResult is the tagged outcome of a tool invocation. A failed result only
// has the error message, a successful one has the payload of its tool.
type ToolResult struct {
	Status ToolStatus
	Error  string
	// Task is set by add, complete, delete and update.
	Task *TaskSnapshot
	// Tasks is set by list.
	Tasks []TaskSnapshot
}

// Failed returns true if the invocation failed.
func (r ToolResult) Failed() bool { return r.Status == ToolStatusFailed }

// ToolFailure returns a failed tool result.
func ToolFailure(format string, args ...any) ToolResult {
	return ToolResult{
		Status: ToolStatusFailed,
		Error:  fmt.Sprintf(format, args...),
	}
}

// ToolInvocation is a tool call requested by the model together with its result.
type ToolInvocation struct {
	Tool      ToolName
	Arguments ToolArguments
	Result    ToolResult
}
