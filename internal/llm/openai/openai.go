// Package openai implements a language model client for OpenAI compatible
// chat completion APIs (Groq, OpenAI, OpenRouter...).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/log"
)

const (
	// DefaultBaseURL is the Groq OpenAI compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the model used when the request doesn't set one.
	DefaultModel = "llama-3.1-8b-instant"
)

// ClientConfig is the configuration for the OpenAI compatible client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	// MaxRetries on rate limits and server errors, 0 uses the default and
	// negative disables retries.
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = 3
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "llm.OpenAI"})
	return nil
}

// Client is an OpenAI compatible chat completions client with tool calling.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       log.Logger
}

// NewClient returns a new OpenAI compatible client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
		httpClient:   cfg.HTTPClient,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}, nil
}

var _ llm.Client = &Client{}

// Complete sends the transcript with the tool declarations and returns the model answer.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	body, err := json.Marshal(c.mapRequest(req))
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryBackoff * time.Duration(1<<uint(attempt-1))
			c.logger.Warningf("Retrying model request in %s: %s", wait, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, retry, err := c.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !retry || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do executes a single request, it returns if the error can be retried.
func (c *Client) do(ctx context.Context, body []byte) (resp *llm.Response, retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("could not read response body: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("rate limit exceeded (429): %s", strings.TrimSpace(string(respBody)))
	case httpResp.StatusCode >= 500:
		return nil, true, fmt.Errorf("API request failed with status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	case httpResp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("API request failed with status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, false, fmt.Errorf("could not unmarshal response: %w", err)
	}
	if cr.Error != nil {
		return nil, false, fmt.Errorf("API error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return nil, false, fmt.Errorf("response without choices")
	}

	return mapResponse(cr.Choices[0].Message), false, nil
}

func (c *Client) mapRequest(req llm.Request) chatRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	cr := chatRequest{
		Model:       model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		cr.Messages = append(cr.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	for _, t := range req.Tools {
		params := functionParameters{Type: "object", Properties: map[string]parameterSchema{}}
		for _, p := range t.Parameters {
			params.Properties[p.Name] = parameterSchema{Type: string(p.Type), Description: p.Description}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		cr.Tools = append(cr.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	if len(cr.Tools) > 0 {
		choice := req.ToolChoice
		if choice == "" {
			choice = llm.ToolChoiceAuto
		}
		cr.ToolChoice = string(choice)
	}

	return cr
}

func mapResponse(m chatMessage) *llm.Response {
	resp := &llm.Response{Text: m.Content}
	for _, tc := range m.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  functionParameters `json:"parameters"`
}

type functionParameters struct {
	Type       string                     `json:"type"`
	Properties map[string]parameterSchema `json:"properties"`
	Required   []string                   `json:"required,omitempty"`
}

type parameterSchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
