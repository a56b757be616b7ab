package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/todochat/internal/app/tasklist"
)

const (
	taskStatusAll       = "all"
	taskStatusPending   = "pending"
	taskStatusCompleted = "completed"
)

type TaskListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	ownerID string
	status  string
	offset  int
	limit   int
	format  string
}

// NewTaskListCommand returns the task list command.
func NewTaskListCommand(rootCmd *RootCommand, taskCmd *kingpin.CmdClause) *TaskListCommand {
	c := &TaskListCommand{rootCmd: rootCmd}

	c.Cmd = taskCmd.Command("list", "List the owner tasks.")
	c.Cmd.Flag("owner", "Owner of the tasks.").Required().StringVar(&c.ownerID)
	c.Cmd.Flag("status", "Filter by status (all, pending, completed).").Default(taskStatusAll).EnumVar(&c.status, taskStatusAll, taskStatusPending, taskStatusCompleted)
	c.Cmd.Flag("offset", "Number of tasks skipped.").Default("0").IntVar(&c.offset)
	c.Cmd.Flag("limit", "Max number of tasks, 0 means all.").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c TaskListCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskListCommand) Run(ctx context.Context) error {
	store, closeStore, err := c.rootCmd.NewStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := tasklist.NewService(tasklist.ServiceConfig{
		Repository: store.Tasks(),
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	var completed *bool
	switch c.status {
	case taskStatusPending:
		completed = new(bool)
	case taskStatusCompleted:
		v := true
		completed = &v
	}

	tasks, err := svc.Run(ctx, tasklist.Request{
		OwnerID:   c.ownerID,
		Completed: completed,
		Offset:    c.offset,
		Limit:     c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list tasks: %w", err)
	}

	if err := c.rootCmd.NewPrinter(c.format).PrintTasks(tasks); err != nil {
		return fmt.Errorf("could not print tasks: %w", err)
	}

	return nil
}
