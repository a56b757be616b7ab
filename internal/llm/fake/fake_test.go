package fake_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/llm/fake"
)

func TestScripted(t *testing.T) {
	c := fake.NewScripted(fake.Text("hi"), fake.Fail(fmt.Errorf("boom")))
	ctx := context.Background()

	resp, err := c.Complete(ctx, llm.Request{Model: "a"})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text)

	_, err = c.Complete(ctx, llm.Request{Model: "b"})
	assert.Error(t, err)

	_, err = c.Complete(ctx, llm.Request{Model: "c"})
	assert.Error(t, err)

	reqs := c.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "a", reqs[0].Model)
	assert.Equal(t, "c", reqs[2].Model)
}

func TestRules(t *testing.T) {
	tests := map[string]struct {
		msg     string
		expText bool
		expTool string
		expArgs map[string]any
	}{
		"A greeting should answer with text.": {
			msg:     "hello there",
			expText: true,
		},
		"A plain sentence should add a task.": {
			msg:     "buy milk",
			expTool: "add_task",
			expArgs: map[string]any{"title": "buy milk"},
		},
		"An add phrase should add a task without the filler.": {
			msg:     "add groceries to my list",
			expTool: "add_task",
			expArgs: map[string]any{"title": "groceries"},
		},
		"Show should list tasks.": {
			msg:     "show my tasks",
			expTool: "list_tasks",
			expArgs: map[string]any{},
		},
		"Complete with a number should complete the task.": {
			msg:     "complete task 1",
			expTool: "complete_task",
			expArgs: map[string]any{"task_id": "1"},
		},
		"Delete with an ordinal word should delete the task.": {
			msg:     "delete the first task",
			expTool: "delete_task",
			expArgs: map[string]any{"task_id": "1"},
		},
		"A task ID should be kept as written.": {
			msg:     "complete 01KG0000000000000000000ABC",
			expTool: "complete_task",
			expArgs: map[string]any{"task_id": "01KG0000000000000000000ABC"},
		},
		"An ordinal word should be case insensitive.": {
			msg:     "Delete the Second task",
			expTool: "delete_task",
			expArgs: map[string]any{"task_id": "2"},
		},
		"Change should update the task.": {
			msg:     "change task 1 to buy bread",
			expTool: "update_task",
			expArgs: map[string]any{"task_id": "1", "title": "buy bread"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := fake.NewRules().Complete(context.Background(), llm.Request{
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: "system"},
					{Role: llm.RoleUser, Content: test.msg},
				},
			})
			require.NoError(t, err)

			if test.expText {
				assert.NotEmpty(t, resp.Text)
				assert.Empty(t, resp.ToolCalls)
				return
			}

			require.Len(t, resp.ToolCalls, 1)
			assert.Equal(t, test.expTool, resp.ToolCalls[0].Name)
			var args map[string]any
			require.NoError(t, json.Unmarshal(resp.ToolCalls[0].Arguments, &args))
			assert.Equal(t, test.expArgs, args)
		})
	}
}
