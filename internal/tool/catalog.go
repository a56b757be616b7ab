package tool

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/model"
)

type parameter struct {
	name        string
	description string
	required    bool
}

type declaration struct {
	name        model.ToolName
	description string
	params      []parameter
}

var catalog = []declaration{
	{
		name:        model.ToolAddTask,
		description: "Create a new task in the todo list",
		params: []parameter{
			{name: "title", description: "The title/description of the task to add", required: true},
			{name: "description", description: "Optional longer description of the task"},
		},
	},
	{
		name:        model.ToolListTasks,
		description: "Get all tasks from the todo list",
	},
	{
		name:        model.ToolCompleteTask,
		description: "Mark a task as completed",
		params: []parameter{
			{name: "task_id", description: "The ID or number of the task to complete", required: true},
		},
	},
	{
		name:        model.ToolDeleteTask,
		description: "Delete/remove a task from the list",
		params: []parameter{
			{name: "task_id", description: "The ID or number of the task to delete", required: true},
		},
	},
	{
		name:        model.ToolUpdateTask,
		description: "Update/modify a task's title or description",
		params: []parameter{
			{name: "task_id", description: "The ID or number of the task to update", required: true},
			{name: "title", description: "New title for the task"},
			{name: "description", description: "New description for the task"},
		},
	},
}

// Declarations returns the tool declarations sent to the language model, in catalog order.
func Declarations() []llm.ToolDeclaration {
	decls := make([]llm.ToolDeclaration, 0, len(catalog))
	for _, d := range catalog {
		params := make([]llm.Parameter, 0, len(d.params))
		for _, p := range d.params {
			params = append(params, llm.Parameter{
				Name:        p.name,
				Type:        llm.ParameterTypeString,
				Description: p.description,
				Required:    p.required,
			})
		}
		decls = append(decls, llm.ToolDeclaration{
			Name:        string(d.name),
			Description: d.description,
			Parameters:  params,
		})
	}
	return decls
}

// MCPTools returns the catalog as MCP tools, in catalog order.
func MCPTools() []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(catalog))
	for _, d := range catalog {
		opts := []mcp.ToolOption{mcp.WithDescription(d.description)}
		for _, p := range d.params {
			popts := []mcp.PropertyOption{mcp.Description(p.description)}
			if p.required {
				popts = append(popts, mcp.Required())
			}
			opts = append(opts, mcp.WithString(p.name, popts...))
		}
		tools = append(tools, mcp.NewTool(string(d.name), opts...))
	}
	return tools
}
