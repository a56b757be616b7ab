// Package gemini implements a language model client for the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/log"
)

// DefaultModel is the model used when the request doesn't set one.
const DefaultModel = "gemini-2.5-flash"

// ClientConfig is the configuration for the Gemini client.
type ClientConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, mostly for proxies.
	BaseURL string
	Model   string
	Logger  log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "llm.Gemini"})
	return nil
}

// generator is the part of the genai models service we use.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is a Gemini client with function calling.
type Client struct {
	models generator
	model  string
	logger log.Logger
}

// NewClient returns a new Gemini client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create genai client: %w", err)
	}

	return &Client{
		models: gc.Models,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

var _ llm.Client = &Client{}

// Complete sends the transcript with the tool declarations and returns the model answer.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents, config := mapRequest(req)
	resp, err := c.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("could not generate content: %w", err)
	}

	r, err := mapResponse(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("Model answered with %d function calls", len(r.ToolCalls))
	return r, nil
}

func mapRequest(req llm.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{},
			}
			for _, p := range t.Parameters {
				schema.Properties[p.Name] = &genai.Schema{
					Type:        genai.TypeString,
					Description: p.Description,
				}
				schema.PropertyOrdering = append(schema.PropertyOrdering, p.Name)
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}

			decl := &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
			}
			if len(t.Parameters) > 0 {
				decl.Parameters = schema
			}
			decls = append(decls, decl)
		}

		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}

	return contents, config
}

func mapResponse(resp *genai.GenerateContentResponse) (*llm.Response, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}

	r := &llm.Response{}
	calls := resp.FunctionCalls()
	for _, fc := range calls {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("could not marshal function call arguments: %w", err)
		}
		r.ToolCalls = append(r.ToolCalls, llm.ToolCall{
			ID:        fc.ID,
			Name:      fc.Name,
			Arguments: args,
		})
	}

	// Text logs a warning on responses with function call parts.
	if len(calls) == 0 {
		r.Text = resp.Text()
	}

	return r, nil
}
