// Package tools exposes the todo service as MCP tools for agent runtimes.
package tools

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/davidjrh/ToDoFunction/internal/metrics"
	"github.com/davidjrh/ToDoFunction/internal/outcome"
	"github.com/davidjrh/ToDoFunction/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName   = "todo"
	instructions = "Manage a personal todo list: list, look up, create, modify and remove tasks by id."
)

// NewServer builds an MCP server with every todo tool registered.
func NewServer(svc service.Todos, logger *slog.Logger, rec *metrics.Recorder, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	Register(srv, svc, logger, rec)
	return srv
}

// Register adds the todo tools to srv.
func Register(srv *mcp.Server, svc service.Todos, logger *slog.Logger, rec *metrics.Recorder) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &toolset{svc: svc, log: logger.With("component", "tools"), rec: rec}

	mcp.AddTool(srv, ListTasksTool(), t.ListTasksHandler())
	mcp.AddTool(srv, FindTaskTool(), t.FindTaskHandler())
	mcp.AddTool(srv, CreateTaskTool(), t.CreateTaskHandler())
	mcp.AddTool(srv, ModifyTaskTool(), t.ModifyTaskHandler())
	mcp.AddTool(srv, RemoveTaskTool(), t.RemoveTaskHandler())
}

type toolset struct {
	svc service.Todos
	log *slog.Logger
	rec *metrics.Recorder
}

// ok returns out as both the text and the structured content of the result.
func (t *toolset) ok(op string, out any) (*mcp.CallToolResult, any, error) {
	t.rec.Observe(metrics.TransportTool, op, outcome.OK)
	return result(out, false)
}

// fail returns a tool error object. id is echoed for not-found failures.
func (t *toolset) fail(op string, f outcome.Failure, err error, id *int64) (*mcp.CallToolResult, any, error) {
	if f.Kind == outcome.Internal {
		t.log.Error("tool call failed", "tool", op, "error", err)
	}
	t.rec.Observe(metrics.TransportTool, op, f.Kind)
	return result(f.Tool(id), true)
}

func result(out any, isError bool) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, out, nil
}
