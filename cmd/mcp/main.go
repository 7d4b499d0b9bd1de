// Command mcp serves the todo tools over stdio for local agent runtimes.
// Logs go to stderr so stdout stays a clean protocol stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidjrh/ToDoFunction/internal/app"
	"github.com/davidjrh/ToDoFunction/internal/config"
	"github.com/davidjrh/ToDoFunction/internal/logging"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.NewWithWriter(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	defer application.Close(context.Background())

	logger.Info("serving tools over stdio", "store", cfg.Store.Driver)
	if err := application.ToolServer().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
