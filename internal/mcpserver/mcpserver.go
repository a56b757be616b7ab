package mcpserver

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
	"github.com/slok/todochat/internal/tool"
)

const serverName = "todochat"

// ServerConfig is the configuration for the MCP server.
type ServerConfig struct {
	Transactor storage.Transactor
	Dispatcher *tool.Dispatcher
	// OwnerID is the owner every tool call acts on behalf of.
	OwnerID string
	Version string
	Logger  log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.Transactor == nil {
		return fmt.Errorf("transactor is required")
	}
	if c.OwnerID == "" {
		return fmt.Errorf("owner is required")
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "mcpserver.Server", "owner": c.OwnerID})

	if c.Dispatcher == nil {
		d, err := tool.NewDispatcher(tool.DispatcherConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create dispatcher: %w", err)
		}
		c.Dispatcher = d
	}

	return nil
}

// Server exposes the task tools over MCP, each call runs in its own unit of work.
type Server struct {
	tx         storage.Transactor
	dispatcher *tool.Dispatcher
	ownerID    string
	mcp        *server.MCPServer
	logger     log.Logger
}

// NewServer creates a new MCP server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		tx:         cfg.Transactor,
		dispatcher: cfg.Dispatcher,
		ownerID:    cfg.OwnerID,
		logger:     cfg.Logger,
	}

	s.mcp = server.NewMCPServer(serverName, cfg.Version, server.WithToolCapabilities(false), server.WithRecovery())
	for _, t := range tool.MCPTools() {
		s.mcp.AddTool(t, s.handler(model.ToolName(t.Name)))
	}

	return s, nil
}

// Serve serves MCP over the reader and writer until the context is done.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Infof("MCP server listening on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handler(name model.ToolName) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := model.ToolArguments{}
		for k, v := range request.GetArguments() {
			args[k] = v
		}

		res, err := s.call(ctx, name, args)
		if err != nil {
			s.logger.Errorf("Tool %s failed: %s", name, err)
			return mcp.NewToolResultError(fmt.Sprintf("❌ Failed to run %s: %s", name, err)), nil
		}

		text := tool.SynthesizeOne(model.ToolInvocation{Tool: name, Arguments: args, Result: res})
		if res.Failed() {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (s *Server) call(ctx context.Context, name model.ToolName, args model.ToolArguments) (model.ToolResult, error) {
	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return model.ToolResult{}, fmt.Errorf("could not begin unit of work: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	res := s.dispatcher.Dispatch(ctx, uow.Tasks(), s.ownerID, name, args)
	if res.Failed() {
		return res, nil
	}

	if err := uow.Commit(); err != nil {
		return model.ToolResult{}, fmt.Errorf("could not commit: %w", err)
	}

	return res, nil
}
