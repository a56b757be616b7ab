package printer

import "github.com/slok/todochat/internal/model"

// Printer knows how to print todochat information in different formats.
type Printer interface {
	PrintTasks(tasks []model.Task) error
	PrintConversations(convs []model.Conversation) error
	PrintTurns(turns []model.Turn) error
	PrintTurnResponse(resp model.TurnResponse) error
	PrintMessage(msg string) error
}
