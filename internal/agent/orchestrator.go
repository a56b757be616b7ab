package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
	"github.com/slok/todochat/internal/tool"
)

const (
	// ApologyReply is the reply when the model couldn't be used.
	ApologyReply = "Sorry, I couldn't reach the assistant right now. Please try again."
	// FallbackReply is the reply when the model answers without tools nor text.
	FallbackReply = "I'm here to help!"
)

// OrchestratorConfig is the configuration for the turn orchestrator.
type OrchestratorConfig struct {
	Model      llm.Client
	Dispatcher *tool.Dispatcher
	// AgentConfig overrides the model name, temperature and system prompt.
	AgentConfig model.AgentConfig
	// Timeout of the model call, 0 disables it.
	Timeout time.Duration
	Logger  log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.Model == nil {
		return fmt.Errorf("model client is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.Orchestrator"})
	if c.Dispatcher == nil {
		d, err := tool.NewDispatcher(tool.DispatcherConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create dispatcher: %w", err)
		}
		c.Dispatcher = d
	}
	if c.AgentConfig.SystemPrompt == "" {
		c.AgentConfig.SystemPrompt = DefaultSystemPrompt
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative")
	}
	return nil
}

// Orchestrator runs a chat turn: it asks the model what to do with the user
// message and executes the requested tools.
type Orchestrator struct {
	model      llm.Client
	dispatcher *tool.Dispatcher
	agentCfg   model.AgentConfig
	timeout    time.Duration
	logger     log.Logger
}

// NewOrchestrator returns a new turn orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		model:      cfg.Model,
		dispatcher: cfg.Dispatcher,
		agentCfg:   cfg.AgentConfig,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}, nil
}

// TurnInput is the input of a turn.
type TurnInput struct {
	OwnerID string
	// History is the conversation before the message, oldest first.
	History []model.Turn
	Message string
	// Tasks is where the tools are executed.
	Tasks storage.TaskRepository
}

// TurnOutput is the result of a turn.
type TurnOutput struct {
	Reply           string
	ToolInvocations []model.ToolInvocation
	// Degraded is true when the turn couldn't be completed and the reply is the apology.
	Degraded bool
}

// Run runs a turn. It never fails, when the model can't be used the reply is
// an apology without tool invocations.
func (o *Orchestrator) Run(ctx context.Context, in TurnInput) (out TurnOutput) {
	logger := o.logger.WithCtxValues(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Turn panicked: %v", r)
			out = apology()
		}
	}()

	resp, err := o.complete(ctx, in)
	if err != nil {
		logger.Errorf("Model unavailable: %s", err)
		return apology()
	}

	if len(resp.ToolCalls) == 0 {
		if resp.Text == "" {
			return TurnOutput{Reply: FallbackReply, ToolInvocations: []model.ToolInvocation{}}
		}
		return TurnOutput{Reply: resp.Text, ToolInvocations: []model.ToolInvocation{}}
	}

	invocations := make([]model.ToolInvocation, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		name, err := model.ParseToolName(tc.Name)
		if err != nil {
			logger.Warningf("Ignoring tool call: %s", err)
			continue
		}

		args := parseArguments(tc.Arguments)
		res := o.dispatcher.Dispatch(ctx, in.Tasks, in.OwnerID, name, args)
		invocations = append(invocations, model.ToolInvocation{Tool: name, Arguments: args, Result: res})
	}

	logger.Infof("Turn executed %d tools", len(invocations))
	return TurnOutput{Reply: tool.Synthesize(invocations), ToolInvocations: invocations}
}

func (o *Orchestrator) complete(ctx context.Context, in TurnInput) (*llm.Response, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	messages := make([]llm.Message, 0, len(in.History)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: o.agentCfg.SystemPrompt})
	for _, t := range in.History {
		role := llm.RoleUser
		if t.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: in.Message})

	resp, err := o.model.Complete(ctx, llm.Request{
		Model:       o.agentCfg.Model,
		Messages:    messages,
		Tools:       tool.Declarations(),
		ToolChoice:  llm.ToolChoiceAuto,
		Temperature: o.agentCfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrModelUnavailable, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", model.ErrModelUnavailable)
	}

	return resp, nil
}

// parseArguments decodes the raw tool arguments, malformed arguments are empty.
func parseArguments(raw json.RawMessage) model.ToolArguments {
	args := model.ToolArguments{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return args
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return args
	}
	// Anything after the object makes the whole payload malformed.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return args
	}

	for k, v := range m {
		args[k] = v
	}
	return args
}

func apology() TurnOutput {
	return TurnOutput{Reply: ApologyReply, ToolInvocations: []model.ToolInvocation{}, Degraded: true}
}
