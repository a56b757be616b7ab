// Package fake has language model clients that don't need a real model, for
// tests and offline usage.
package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/slok/todochat/internal/llm"
)

// Step answers a single request.
type Step func(ctx context.Context, req llm.Request) (*llm.Response, error)

// Scripted is a client that answers each request with the next step, it
// records the requests received.
type Scripted struct {
	mu       sync.Mutex
	steps    []Step
	requests []llm.Request
}

// NewScripted returns a scripted client.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

func (s *Scripted) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("no more scripted responses")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	s.mu.Unlock()

	return step(ctx, req)
}

// Requests returns the requests received so far.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request{}, s.requests...)
}

// Text answers with text.
func Text(text string) Step {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: text}, nil
	}
}

// Call answers with a single tool call, args are marshaled as JSON.
func Call(name string, args map[string]any) Step {
	return Calls(ToolCall(name, args))
}

// Calls answers with multiple tool calls.
func Calls(calls ...llm.ToolCall) Step {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{ToolCalls: calls}, nil
	}
}

// ToolCall returns a tool call with args marshaled as JSON.
func ToolCall(name string, args map[string]any) llm.ToolCall {
	raw, _ := json.Marshal(args)
	return llm.ToolCall{Name: name, Arguments: raw}
}

// Fail answers with an error.
func Fail(err error) Step {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, err
	}
}

// Block waits until the request context is done.
func Block() Step {
	return func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

var (
	greetingRegexp = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|thanks|thank you)\b`)
	listRegexp     = regexp.MustCompile(`(?i)\b(show|list|what's on|what is on)\b`)
	completeRegexp = regexp.MustCompile(`(?i)^\s*(?:complete|finish|done with|mark)\s+(?:task\s+)?(\S+)`)
	deleteRegexp   = regexp.MustCompile(`(?i)^\s*(?:delete|remove)\s+(?:the\s+)?(?:task\s+)?(\S+)`)
	updateRegexp   = regexp.MustCompile(`(?i)^\s*(?:change|rename|update)\s+(?:task\s+)?(\S+)\s+to\s+(.+)$`)
	addRegexp      = regexp.MustCompile(`(?i)^\s*(?:add|create|new task:?)\s+(.+?)(?:\s+to my list)?\s*$`)
	ordinalWords   = map[string]string{"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5"}
)

// Rules is a client that maps the last user message to tool calls with a few
// phrasing rules. Anything not matched is added as a task.
type Rules struct{}

// NewRules returns a rule based client.
func NewRules() Rules { return Rules{} }

func (Rules) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	msg := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			msg = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}

	switch {
	case msg == "":
		return &llm.Response{}, nil
	case greetingRegexp.MatchString(msg):
		return &llm.Response{Text: "Hi! Tell me what you need to do and I'll keep track of it."}, nil
	case updateRegexp.MatchString(msg):
		m := updateRegexp.FindStringSubmatch(msg)
		return toolResponse("update_task", map[string]any{"task_id": ref(m[1]), "title": m[2]}), nil
	case completeRegexp.MatchString(msg):
		m := completeRegexp.FindStringSubmatch(msg)
		return toolResponse("complete_task", map[string]any{"task_id": ref(m[1])}), nil
	case deleteRegexp.MatchString(msg):
		m := deleteRegexp.FindStringSubmatch(msg)
		return toolResponse("delete_task", map[string]any{"task_id": ref(m[1])}), nil
	case addRegexp.MatchString(msg):
		m := addRegexp.FindStringSubmatch(msg)
		return toolResponse("add_task", map[string]any{"title": m[1]}), nil
	case listRegexp.MatchString(msg):
		return toolResponse("list_tasks", map[string]any{}), nil
	}

	return toolResponse("add_task", map[string]any{"title": msg}), nil
}

// ref normalizes a task reference, only ordinal words are case insensitive,
// task IDs are kept as written.
func ref(s string) string {
	s = strings.Trim(s, ".,!?")
	if n, ok := ordinalWords[strings.ToLower(s)]; ok {
		return n
	}
	return s
}

func toolResponse(name string, args map[string]any) *llm.Response {
	return &llm.Response{ToolCalls: []llm.ToolCall{ToolCall(name, args)}}
}
