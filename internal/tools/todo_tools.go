package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/davidjrh/ToDoFunction/internal/dto"
	"github.com/davidjrh/ToDoFunction/internal/outcome"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolListTasks  = "list_all_tasks"
	ToolFindTask   = "find_task_by_id"
	ToolCreateTask = "create_task"
	ToolModifyTask = "modify_existing_task"
	ToolRemoveTask = "remove_task"
)

const taskIDDescription = "The unique identifier number assigned to this specific task."

// TaskID accepts a JSON integer or a string and is parsed by the handler, so
// a malformed id comes back as a bad request result like any other failure.
type TaskID struct{ raw string }

func (id *TaskID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		id.raw = s
		return nil
	}
	id.raw = string(bytes.TrimSpace(b))
	return nil
}

func (id TaskID) MarshalJSON() ([]byte, error) {
	if n, err := id.Int64(); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(id.raw)
}

// Int64 parses the id. The error is an outcome.ErrBadRequest.
func (id TaskID) Int64() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id.raw), 10, 64)
	if err != nil {
		return 0, outcome.Malformed("invalid id")
	}
	return n, nil
}

// inputSchema infers the schema for T and widens task_id to accept strings,
// leaving the integer check to TaskID.
func inputSchema[T any]() *jsonschema.Schema {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("tools: input schema: %v", err))
	}
	if _, ok := s.Properties["task_id"]; ok {
		s.Properties["task_id"] = &jsonschema.Schema{
			Types:       []string{"integer", "string"},
			Description: taskIDDescription,
		}
	}
	return s
}

// ListTasksInput takes no arguments.
type ListTasksInput struct{}

// ListTasksResult wraps the records, since structured tool output must be an object.
type ListTasksResult struct {
	Tasks []dto.TodoResponse `json:"tasks"`
	Count int                `json:"count"`
}

type FindTaskInput struct {
	TaskID TaskID `json:"task_id"`
}

type CreateTaskInput struct {
	TaskTitle       string `json:"task_title" jsonschema:"A clear, descriptive title for your task (e.g. 'Buy groceries', 'Finish project report')."`
	TaskDescription string `json:"task_description,omitempty" jsonschema:"Optional detailed description with additional notes, context, or steps for completing this task."`
}

// ModifyTaskInput mirrors the HTTP update: a blank title or description keeps
// the stored value and is_completed is always applied.
type ModifyTaskInput struct {
	TaskID          TaskID `json:"task_id"`
	TaskTitle       string `json:"task_title" jsonschema:"A clear, descriptive title for your task (e.g. 'Buy groceries', 'Finish project report')."`
	TaskDescription string `json:"task_description,omitempty" jsonschema:"Optional detailed description with additional notes, context, or steps for completing this task."`
	IsCompleted     bool   `json:"is_completed,omitempty" jsonschema:"Set to true when the task is finished, false when it's still pending or in progress."`
}

type RemoveTaskInput struct {
	TaskID TaskID `json:"task_id"`
}

type RemoveTaskResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func ListTasksTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListTasks,
		Description: "View all your tasks at once. Shows both completed and pending items with their details.",
	}
}

func FindTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolFindTask,
		Description: "Look up a specific task using its unique ID number to see all its details.",
		InputSchema: inputSchema[FindTaskInput](),
	}
}

func CreateTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolCreateTask,
		Description: "Create a new task in your personal todo list. Perfect for adding things you need to remember or accomplish.",
	}
}

func ModifyTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolModifyTask,
		Description: "Update any task details like title, description, or mark it as completed or pending.",
		InputSchema: inputSchema[ModifyTaskInput](),
	}
}

func RemoveTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolRemoveTask,
		Description: "Permanently delete a task from your todo list. This action cannot be undone.",
		InputSchema: inputSchema[RemoveTaskInput](),
	}
}

func (t *toolset) ListTasksHandler() mcp.ToolHandlerFor[ListTasksInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListTasksInput) (*mcp.CallToolResult, any, error) {
		list, err := t.svc.List(ctx)
		if err != nil {
			return t.fail("list", outcome.Describe(err, "retrieve todos"), err, nil)
		}
		tasks := dto.NewTodoResponses(list)
		return t.ok("list", ListTasksResult{Tasks: tasks, Count: len(tasks)})
	}
}

func (t *toolset) FindTaskHandler() mcp.ToolHandlerFor[FindTaskInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in FindTaskInput) (*mcp.CallToolResult, any, error) {
		id, err := in.TaskID.Int64()
		if err != nil {
			return t.fail("get", outcome.Describe(err, "retrieve todo"), err, nil)
		}
		todo, err := t.svc.Get(ctx, id)
		if err != nil {
			return t.fail("get", outcome.Describe(err, "retrieve todo"), err, &id)
		}
		return t.ok("get", dto.NewTodoResponse(todo))
	}
}

func (t *toolset) CreateTaskHandler() mcp.ToolHandlerFor[CreateTaskInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in CreateTaskInput) (*mcp.CallToolResult, any, error) {
		todo, err := t.svc.Create(ctx, in.TaskTitle, in.TaskDescription)
		if err != nil {
			return t.fail("create", outcome.Describe(err, "create todo"), err, nil)
		}
		return t.ok("create", dto.NewTodoResponse(todo))
	}
}

func (t *toolset) ModifyTaskHandler() mcp.ToolHandlerFor[ModifyTaskInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ModifyTaskInput) (*mcp.CallToolResult, any, error) {
		id, err := in.TaskID.Int64()
		if err != nil {
			return t.fail("update", outcome.Describe(err, "update todo"), err, nil)
		}
		todo, err := t.svc.Update(ctx, id, in.TaskTitle, in.TaskDescription, in.IsCompleted)
		if err != nil {
			return t.fail("update", outcome.Describe(err, "update todo"), err, &id)
		}
		return t.ok("update", dto.NewTodoResponse(todo))
	}
}

func (t *toolset) RemoveTaskHandler() mcp.ToolHandlerFor[RemoveTaskInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RemoveTaskInput) (*mcp.CallToolResult, any, error) {
		id, err := in.TaskID.Int64()
		if err != nil {
			return t.fail("delete", outcome.Describe(err, "delete todo"), err, nil)
		}
		deleted, err := t.svc.Delete(ctx, id)
		if err != nil {
			return t.fail("delete", outcome.Describe(err, "delete todo"), err, nil)
		}
		if !deleted {
			return t.fail("delete", outcome.Absent(), nil, &id)
		}
		return t.ok("delete", RemoveTaskResult{Success: true, Message: "Todo deleted successfully", ID: id})
	}
}
