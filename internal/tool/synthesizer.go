package tool

import (
	"fmt"
	"strings"

	"github.com/slok/todochat/internal/model"
)

const (
	// GreetingReply is the reply when the model requested tools but none was executed.
	GreetingReply = "I'm here to help you manage your tasks!"

	markDone    = "✅"
	markPending = "⬜"
	markFailed  = "❌"
)

// Synthesize returns the reply for the executed invocations, one block per
// invocation in call order.
func Synthesize(invocations []model.ToolInvocation) string {
	if len(invocations) == 0 {
		return GreetingReply
	}

	blocks := make([]string, 0, len(invocations))
	for _, inv := range invocations {
		blocks = append(blocks, SynthesizeOne(inv))
	}

	return strings.Join(blocks, "\n\n")
}

// SynthesizeOne returns the reply block of a single invocation.
func SynthesizeOne(inv model.ToolInvocation) string {
	res := inv.Result

	switch inv.Tool {
	case model.ToolAddTask:
		if res.Failed() {
			return fmt.Sprintf("%s Failed to add task: %s", markFailed, res.Error)
		}
		return fmt.Sprintf("%s Task '%s' has been added successfully!", markDone, taskTitle(res))

	case model.ToolListTasks:
		if res.Failed() {
			return fmt.Sprintf("%s Failed to list tasks: %s", markFailed, res.Error)
		}
		if len(res.Tasks) == 0 {
			return "📋 You have no tasks yet."
		}
		var b strings.Builder
		b.WriteString("📋 Your tasks:")
		for i, t := range res.Tasks {
			mark := markPending
			if t.Completed {
				mark = markDone
			}
			fmt.Fprintf(&b, "\n%s %d. %s", mark, i+1, t.Title)
		}
		return b.String()

	case model.ToolCompleteTask:
		if res.Failed() {
			return fmt.Sprintf("%s Failed to complete task: %s", markFailed, res.Error)
		}
		return fmt.Sprintf("%s Task '%s' marked as completed!", markDone, taskTitle(res))

	case model.ToolDeleteTask:
		if res.Failed() {
			return fmt.Sprintf("%s Failed to delete task: %s", markFailed, res.Error)
		}
		return fmt.Sprintf("🗑️ Task '%s' has been deleted successfully!", taskTitle(res))

	case model.ToolUpdateTask:
		if res.Failed() {
			return fmt.Sprintf("%s Failed to update task: %s", markFailed, res.Error)
		}
		return fmt.Sprintf("✏️ Task '%s' has been updated successfully!", taskTitle(res))
	}

	panic(fmt.Sprintf("unknown tool %q", inv.Tool))
}

func taskTitle(res model.ToolResult) string {
	if res.Task == nil {
		return ""
	}
	return res.Task.Title
}
