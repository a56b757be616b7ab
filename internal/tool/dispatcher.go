package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
)

// DispatcherConfig is the configuration for the tool dispatcher.
type DispatcherConfig struct {
	Logger log.Logger
}

func (c *DispatcherConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tool.Dispatcher"})
	return nil
}

// Dispatcher executes the tool invocations requested by the model against the owner's tasks.
type Dispatcher struct {
	logger log.Logger
}

// NewDispatcher returns a new tool dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Dispatcher{logger: cfg.Logger}, nil
}

// Dispatch executes a tool. It never fails, errors are returned as failed results.
// Mutations are applied on the received repository and are never committed here.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks storage.TaskRepository, ownerID string, name model.ToolName, args model.ToolArguments) model.ToolResult {
	logger := d.logger.WithCtxValues(ctx).WithValues(log.Kv{"tool": name})

	var res model.ToolResult
	switch name {
	case model.ToolAddTask:
		res = d.addTask(ctx, tasks, ownerID, args)
	case model.ToolListTasks:
		res = d.listTasks(ctx, tasks, ownerID)
	case model.ToolCompleteTask:
		res = d.completeTask(ctx, tasks, ownerID, args)
	case model.ToolDeleteTask:
		res = d.deleteTask(ctx, tasks, ownerID, args)
	case model.ToolUpdateTask:
		res = d.updateTask(ctx, tasks, ownerID, args)
	default:
		res = model.ToolFailure("Unknown tool: %s", name)
	}

	if res.Failed() {
		logger.Warningf("Tool failed: %s", res.Error)
	} else {
		logger.Debugf("Tool executed: %s", res.Status)
	}

	return res
}

func (d *Dispatcher) addTask(ctx context.Context, tasks storage.TaskRepository, ownerID string, args model.ToolArguments) model.ToolResult {
	title, _ := args.String("title")
	if strings.TrimSpace(title) == "" {
		return model.ToolFailure("title is required")
	}

	description, _ := args.String("description")
	if strings.TrimSpace(description) == "" {
		description = ""
	}

	t, err := tasks.CreateTask(ctx, ownerID, title, description)
	if err != nil {
		return failure(err, "")
	}

	return taskResult(model.ToolStatusCreated, *t)
}

func (d *Dispatcher) listTasks(ctx context.Context, tasks storage.TaskRepository, ownerID string) model.ToolResult {
	ts, err := tasks.ListTasks(ctx, ownerID, storage.ListTasksOptions{Limit: ResolveSnapshotSize})
	if err != nil {
		return failure(err, "")
	}

	snapshots := make([]model.TaskSnapshot, 0, len(ts))
	for _, t := range ts {
		snapshots = append(snapshots, model.NewTaskSnapshot(t))
	}

	return model.ToolResult{Status: model.ToolStatusListed, Tasks: snapshots}
}

func (d *Dispatcher) completeTask(ctx context.Context, tasks storage.TaskRepository, ownerID string, args model.ToolArguments) model.ToolResult {
	ref, id, res, ok := resolveArg(ctx, tasks, ownerID, args)
	if !ok {
		return res
	}

	t, err := tasks.SetTaskCompleted(ctx, ownerID, id, true)
	if err != nil {
		return failure(err, ref)
	}

	return taskResult(model.ToolStatusCompleted, *t)
}

func (d *Dispatcher) deleteTask(ctx context.Context, tasks storage.TaskRepository, ownerID string, args model.ToolArguments) model.ToolResult {
	ref, id, res, ok := resolveArg(ctx, tasks, ownerID, args)
	if !ok {
		return res
	}

	// Get the task first so the reply can name what was deleted.
	t, err := tasks.GetTask(ctx, ownerID, id)
	if err != nil {
		return failure(err, ref)
	}
	if err := tasks.DeleteTask(ctx, ownerID, id); err != nil {
		return failure(err, ref)
	}

	return taskResult(model.ToolStatusDeleted, *t)
}

func (d *Dispatcher) updateTask(ctx context.Context, tasks storage.TaskRepository, ownerID string, args model.ToolArguments) model.ToolResult {
	ref, id, res, ok := resolveArg(ctx, tasks, ownerID, args)
	if !ok {
		return res
	}

	update := model.TaskUpdate{}
	if title, ok := args.String("title"); ok {
		if strings.TrimSpace(title) == "" {
			return model.ToolFailure("title can't be empty")
		}
		update.Title = &title
	}
	if description, ok := args.String("description"); ok {
		update.Description = &description
	}
	if update.Empty() {
		return model.ToolFailure("nothing to update, a new title or description is required")
	}

	t, err := tasks.UpdateTask(ctx, ownerID, id, update)
	if err != nil {
		return failure(err, ref)
	}

	return taskResult(model.ToolStatusUpdated, *t)
}

// resolveArg resolves the task_id argument. When it can't, the failed result is returned.
func resolveArg(ctx context.Context, tasks storage.TaskRepository, ownerID string, args model.ToolArguments) (ref, id string, res model.ToolResult, ok bool) {
	ref, _ = args.String("task_id")
	if strings.TrimSpace(ref) == "" {
		return ref, "", model.ToolFailure("task_id is required"), false
	}

	id, err := Resolve(ctx, tasks, ownerID, ref)
	if err != nil {
		return ref, "", failure(err, ref), false
	}

	return ref, id, model.ToolResult{}, true
}

// failure maps a store error into a failed result. Missing tasks are reported
// using the reference the model sent.
func failure(err error, ref string) model.ToolResult {
	if errors.Is(err, model.ErrNotFound) {
		return model.ToolFailure("Task '%s' not found", ref)
	}
	return model.ToolFailure("%s", err)
}

func taskResult(status model.ToolStatus, t model.Task) model.ToolResult {
	s := model.NewTaskSnapshot(t)
	return model.ToolResult{Status: status, Task: &s}
}
