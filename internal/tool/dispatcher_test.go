package tool_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
	"github.com/slok/todochat/internal/storage/storagemock"
	"github.com/slok/todochat/internal/tool"
)

func newDispatcher(t *testing.T) *tool.Dispatcher {
	d, err := tool.NewDispatcher(tool.DispatcherConfig{})
	require.NoError(t, err)
	return d
}

func TestDispatcherDispatch(t *testing.T) {
	tests := map[string]struct {
		titles []string
		tool   model.ToolName
		args   func(tasks []model.Task) model.ToolArguments
		exp    func(t *testing.T, tasks []model.Task, res model.ToolResult, repo storage.TaskRepository)
	}{
		"Adding a task should create it.": {
			tool: model.ToolAddTask,
			args: func(_ []model.Task) model.ToolArguments {
				return model.ToolArguments{"title": "buy milk", "description": "2 liters"}
			},
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, model.ToolStatusCreated, res.Status)
				require.NotNil(t, res.Task)
				assert.Equal(t, "buy milk", res.Task.Title)
				assert.Equal(t, "2 liters", res.Task.Description)
				assert.NotEmpty(t, res.Task.ID)
			},
		},

		"Adding a task with a blank description should store it without one.": {
			tool: model.ToolAddTask,
			args: func(_ []model.Task) model.ToolArguments {
				return model.ToolArguments{"title": "buy milk", "description": "   "}
			},
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, "", res.Task.Description)
			},
		},

		"Adding a task without title should fail.": {
			tool: model.ToolAddTask,
			args: func(_ []model.Task) model.ToolArguments { return model.ToolArguments{} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
				assert.Equal(t, "title is required", res.Error)
			},
		},

		"Adding a task with a too long title should fail.": {
			tool: model.ToolAddTask,
			args: func(_ []model.Task) model.ToolArguments {
				return model.ToolArguments{"title": string(make([]byte, 256))}
			},
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
			},
		},

		"Adding then listing should return the task pending.": {
			titles: []string{"walk dog"},
			tool:   model.ToolListTasks,
			args:   func(_ []model.Task) model.ToolArguments { return nil },
			exp: func(t *testing.T, tasks []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, model.ToolStatusListed, res.Status)
				require.Len(t, res.Tasks, 1)
				assert.Equal(t, "walk dog", res.Tasks[0].Title)
				assert.False(t, res.Tasks[0].Completed)
				assert.Equal(t, tasks[0].ID, res.Tasks[0].ID)
			},
		},

		"Listing without tasks should return an empty list.": {
			tool: model.ToolListTasks,
			args: func(_ []model.Task) model.ToolArguments { return nil },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Empty(t, res.Tasks)
			},
		},

		"Completing a task by number should complete it.": {
			titles: []string{"walk dog"},
			tool:   model.ToolCompleteTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": "1"} },
			exp: func(t *testing.T, tasks []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, model.ToolStatusCompleted, res.Status)
				assert.Equal(t, "walk dog", res.Task.Title)
				assert.True(t, res.Task.Completed)

				got, err := repo.GetTask(context.Background(), "alice", tasks[0].ID)
				require.NoError(t, err)
				assert.True(t, got.Completed)
			},
		},

		"Completing a task with a numeric argument should complete it.": {
			titles: []string{"a", "b"},
			tool:   model.ToolCompleteTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": float64(2)} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, "b", res.Task.Title)
			},
		},

		"Completing a task by identity should complete it.": {
			titles: []string{"a", "b"},
			tool:   model.ToolCompleteTask,
			args:   func(tasks []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": tasks[1].ID} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, "b", res.Task.Title)
			},
		},

		"Completing a missing identity should fail with the reference.": {
			titles: []string{"a"},
			tool:   model.ToolCompleteTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": "01ARZ3NDEKTSV4RRFFQ69G5FAV"} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
				assert.Equal(t, "Task '01ARZ3NDEKTSV4RRFFQ69G5FAV' not found", res.Error)
			},
		},

		"Completing without task_id should fail.": {
			titles: []string{"a"},
			tool:   model.ToolCompleteTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
				assert.Equal(t, "task_id is required", res.Error)
			},
		},

		"Deleting a task out of range should fail and not delete anything.": {
			titles: []string{"a", "b"},
			tool:   model.ToolDeleteTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": "5"} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
				assert.Equal(t, "Task '5' not found", res.Error)

				tasks, err := repo.ListTasks(context.Background(), "alice", storage.ListTasksOptions{})
				require.NoError(t, err)
				assert.Len(t, tasks, 2)
			},
		},

		"Deleting a task should remove it and return its title.": {
			titles: []string{"a", "b"},
			tool:   model.ToolDeleteTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": "1"} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, model.ToolStatusDeleted, res.Status)
				assert.Equal(t, "a", res.Task.Title)

				tasks, err := repo.ListTasks(context.Background(), "alice", storage.ListTasksOptions{})
				require.NoError(t, err)
				require.Len(t, tasks, 1)
				assert.Equal(t, "b", tasks[0].Title)
			},
		},

		"Updating a task title should update it.": {
			titles: []string{"buy milk"},
			tool:   model.ToolUpdateTask,
			args: func(_ []model.Task) model.ToolArguments {
				return model.ToolArguments{"task_id": "1", "title": "buy bread"}
			},
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				require.False(t, res.Failed())
				assert.Equal(t, model.ToolStatusUpdated, res.Status)
				assert.Equal(t, "buy bread", res.Task.Title)
			},
		},

		"Updating a task without fields should fail.": {
			titles: []string{"buy milk"},
			tool:   model.ToolUpdateTask,
			args:   func(_ []model.Task) model.ToolArguments { return model.ToolArguments{"task_id": "1"} },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
			},
		},

		"Updating a task with a blank title should fail.": {
			titles: []string{"buy milk"},
			tool:   model.ToolUpdateTask,
			args: func(_ []model.Task) model.ToolArguments {
				return model.ToolArguments{"task_id": "1", "title": " "}
			},
			exp: func(t *testing.T, tasks []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())

				got, err := repo.GetTask(context.Background(), "alice", tasks[0].ID)
				require.NoError(t, err)
				assert.Equal(t, "buy milk", got.Title)
			},
		},

		"An unknown tool should fail.": {
			tool: model.ToolName("drop_tables"),
			args: func(_ []model.Task) model.ToolArguments { return nil },
			exp: func(t *testing.T, _ []model.Task, res model.ToolResult, repo storage.TaskRepository) {
				assert.True(t, res.Failed())
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, tasks := newTaskRepo(t, "alice", test.titles...)
			d := newDispatcher(t)

			res := d.Dispatch(context.Background(), repo, "alice", test.tool, test.args(tasks))
			test.exp(t, tasks, res, repo)
		})
	}
}

func TestDispatcherCrossOwner(t *testing.T) {
	tests := map[string]struct {
		tool model.ToolName
		args model.ToolArguments
	}{
		"Completing another owner task should fail.": {
			tool: model.ToolCompleteTask,
		},
		"Deleting another owner task should fail.": {
			tool: model.ToolDeleteTask,
		},
		"Updating another owner task should fail.": {
			tool: model.ToolUpdateTask,
			args: model.ToolArguments{"title": "hacked"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo, tasks := newTaskRepo(t, "bob", "bob task")
			d := newDispatcher(t)

			args := model.ToolArguments{"task_id": tasks[0].ID}
			for k, v := range test.args {
				args[k] = v
			}

			res := d.Dispatch(ctx, repo, "alice", test.tool, args)
			assert.True(t, res.Failed())
			assert.Equal(t, fmt.Sprintf("Task '%s' not found", tasks[0].ID), res.Error)

			got, err := repo.GetTask(ctx, "bob", tasks[0].ID)
			require.NoError(t, err)
			assert.Equal(t, tasks[0], *got)
		})
	}
}

func TestDispatcherStoreErrors(t *testing.T) {
	m := &storagemock.MockTaskRepository{}
	id := ulid.Make().String()
	m.On("SetTaskCompleted", mock.Anything, "alice", id, true).Once().Return(nil, fmt.Errorf("disk full"))

	d := newDispatcher(t)
	res := d.Dispatch(context.Background(), m, "alice", model.ToolCompleteTask, model.ToolArguments{"task_id": id})

	assert.True(t, res.Failed())
	assert.Equal(t, "disk full", res.Error)
	m.AssertExpectations(t)
}
