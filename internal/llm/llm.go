// Package llm has the boundary with the language models that drive the chat.
package llm

import (
	"context"
	"encoding/json"
)

// Role is the author of a message sent to the model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry of the transcript sent to the model.
type Message struct {
	Role    Role
	Content string
}

// ParameterType is the JSON type of a tool parameter.
type ParameterType string

const ParameterTypeString ParameterType = "string"

// Parameter is a tool parameter declaration.
type Parameter struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool
}

// ToolDeclaration is a tool the model can request.
type ToolDeclaration struct {
	Name        string
	Description string
	// Parameters are in declaration order.
	Parameters []Parameter
}

// ToolChoice tells the model how it should choose tools.
type ToolChoice string

// ToolChoiceAuto lets the model decide if it calls tools or answers with text.
const ToolChoiceAuto ToolChoice = "auto"

// Request is a completion request.
type Request struct {
	// Model overrides the client default model when set.
	Model       string
	Messages    []Message
	Tools       []ToolDeclaration
	ToolChoice  ToolChoice
	Temperature *float64
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	// Arguments is the raw JSON object sent by the model, it can be malformed.
	Arguments json.RawMessage
}

// Response is the model answer. It has tool calls, text, or both.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is a language model client.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc is a helper to use functions as Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }
