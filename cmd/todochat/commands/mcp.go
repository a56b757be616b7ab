package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/todochat/internal/mcpserver"
)

type MCPCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ownerID string
	version string
}

// NewMCPCommand returns the mcp command.
func NewMCPCommand(rootCmd *RootCommand, app *kingpin.Application, version string) *MCPCommand {
	c := &MCPCommand{rootCmd: rootCmd, version: version}

	c.Cmd = app.Command("mcp", "Serve the task tools over MCP on stdio.")
	c.Cmd.Flag("owner", "Owner the tools act on behalf of.").Required().StringVar(&c.ownerID)

	return c
}

func (c MCPCommand) Name() string { return c.Cmd.FullCommand() }

func (c MCPCommand) Run(ctx context.Context) error {
	store, closeStore, err := c.rootCmd.NewStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := mcpserver.NewServer(mcpserver.ServerConfig{
		Transactor: store,
		OwnerID:    c.ownerID,
		Version:    c.version,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create mcp server: %w", err)
	}

	return srv.Serve(ctx, c.rootCmd.Stdin, c.rootCmd.Stdout)
}
