package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/todochat/internal/app/conversation"
)

type ConversationListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ownerID string
	format  string
}

// NewConversationListCommand returns the conversation list command.
func NewConversationListCommand(rootCmd *RootCommand, convCmd *kingpin.CmdClause) *ConversationListCommand {
	c := &ConversationListCommand{rootCmd: rootCmd}

	c.Cmd = convCmd.Command("list", "List the owner conversations, most recent first.")
	c.Cmd.Flag("owner", "Owner of the conversations.").Required().StringVar(&c.ownerID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ConversationListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ConversationListCommand) Run(ctx context.Context) error {
	svc, closeStore, err := newConversationService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeStore()

	convs, err := svc.List(ctx, conversation.ListRequest{OwnerID: c.ownerID})
	if err != nil {
		return fmt.Errorf("could not list conversations: %w", err)
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintConversations(convs); err != nil {
		return fmt.Errorf("could not print conversations: %w", err)
	}

	return nil
}

type ConversationShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ownerID        string
	conversationID string
	format         string
}

// NewConversationShowCommand returns the conversation show command.
func NewConversationShowCommand(rootCmd *RootCommand, convCmd *kingpin.CmdClause) *ConversationShowCommand {
	c := &ConversationShowCommand{rootCmd: rootCmd}

	c.Cmd = convCmd.Command("show", "Show the messages of a conversation.")
	c.Cmd.Flag("owner", "Owner of the conversation.").Required().StringVar(&c.ownerID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Arg("id", "Conversation ID.").Required().StringVar(&c.conversationID)

	return c
}

func (c ConversationShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c ConversationShowCommand) Run(ctx context.Context) error {
	svc, closeStore, err := newConversationService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeStore()

	turns, err := svc.Messages(ctx, conversation.MessagesRequest{
		OwnerID:        c.ownerID,
		ConversationID: c.conversationID,
	})
	if err != nil {
		return fmt.Errorf("could not get conversation messages: %w", err)
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintTurns(turns); err != nil {
		return fmt.Errorf("could not print messages: %w", err)
	}

	return nil
}

func newConversationService(ctx context.Context, rootCmd *RootCommand) (*conversation.Service, func() error, error) {
	store, closeStore, err := rootCmd.NewStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc, err := conversation.NewService(conversation.ServiceConfig{
		Repository: store.Conversations(),
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("could not create service: %w", err)
	}

	return svc, closeStore, nil
}
