package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/slok/todochat/internal/clock"
	"github.com/slok/todochat/internal/model"
)

// TablePrinter prints todochat information in a table format.
type TablePrinter struct {
	writer io.Writer
	clock  clock.Clock
}

// NewTablePrinter creates a new table printer, relative times are computed with
// the clock, the system one when nil.
func NewTablePrinter(w io.Writer, clk clock.Clock) *TablePrinter {
	if clk == nil {
		clk = clock.System
	}
	return &TablePrinter{writer: w, clock: clk}
}

// PrintTasks prints tasks numbered in list order, the same numbers the assistant understands.
func (t *TablePrinter) PrintTasks(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tID\tTITLE\tDONE\tCREATED")

	now := t.clock.Now()
	for i, task := range tasks {
		done := "no"
		if task.Completed {
			done = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, task.ID, task.Title, done, activity(now, task.CreatedAt))
	}

	return nil
}

// PrintConversations prints conversations in a table format.
func (t *TablePrinter) PrintConversations(convs []model.Conversation) error {
	if len(convs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tCREATED\tLAST ACTIVITY")

	now := t.clock.Now()
	for _, c := range convs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, timestamp(c.CreatedAt), activity(now, c.UpdatedAt))
	}

	return nil
}

// PrintTurns prints a conversation transcript.
func (t *TablePrinter) PrintTurns(turns []model.Turn) error {
	for _, turn := range turns {
		fmt.Fprintf(t.writer, "[%s] %s:\n%s\n\n", timestamp(turn.CreatedAt), turn.Role, turn.Content)
	}

	return nil
}

// PrintTurnResponse prints the reply of a chat turn followed by the executed tools.
func (t *TablePrinter) PrintTurnResponse(resp model.TurnResponse) error {
	fmt.Fprintf(t.writer, "Conversation: %s\n\n", resp.ConversationID)
	fmt.Fprintln(t.writer, resp.Reply)

	if len(resp.ToolInvocations) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TOOL\tARGS\tSTATUS")
	for _, inv := range resp.ToolInvocations {
		args, err := json.Marshal(inv.Arguments)
		if err != nil {
			return fmt.Errorf("could not marshal tool arguments: %w", err)
		}
		status := string(inv.Result.Status)
		if inv.Result.Failed() {
			status = fmt.Sprintf("%s: %s", status, inv.Result.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", inv.Tool, args, status)
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
