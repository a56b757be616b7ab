package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/todochat/internal/app/chat"
	"github.com/slok/todochat/internal/model"
)

type ChatCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ownerID        string
	conversationID string
	message        string
	format         string
}

// NewChatCommand returns the chat command.
func NewChatCommand(rootCmd *RootCommand, app *kingpin.Application) *ChatCommand {
	c := &ChatCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("chat", "Send a message to the assistant and run a single turn.")
	c.Cmd.Flag("owner", "Owner of the tasks and conversation.").Required().StringVar(&c.ownerID)
	c.Cmd.Flag("conversation", "Conversation to continue, a new one is started when missing.").StringVar(&c.conversationID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Arg("message", "Message for the assistant.").Required().StringVar(&c.message)

	return c
}

func (c ChatCommand) Name() string { return c.Cmd.FullCommand() }

func (c ChatCommand) Run(ctx context.Context) error {
	store, closeStore, err := c.rootCmd.NewStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := c.rootCmd.NewChatService(ctx, store)
	if err != nil {
		return err
	}

	resp, err := svc.Run(ctx, chat.Request{
		OwnerID:        c.ownerID,
		ConversationID: c.conversationID,
		Message:        c.message,
	})
	if err != nil && (resp == nil || !errors.Is(err, model.ErrPersistence)) {
		return fmt.Errorf("could not run chat turn: %w", err)
	}

	if perr := c.rootCmd.NewPrinter(c.format).PrintTurnResponse(*resp); perr != nil {
		return fmt.Errorf("could not print response: %w", perr)
	}

	// The reply is printed even if the conversation could not be saved.
	if err != nil {
		return fmt.Errorf("conversation not saved: %w", err)
	}

	return nil
}
