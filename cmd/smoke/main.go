// Command smoke drives a running API through a full todo lifecycle and
// fails on the first unexpected response.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cursor-todo/internal/client"

	"go.uber.org/zap"
)

func main() {
	baseURL := flag.String("url", envOr("API_BASE_URL", client.DefaultBaseURL), "API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, client.NewAPIClient(*baseURL, client.NewTracer(logger)), logger); err != nil {
		logger.Error("smoke test failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("smoke test passed")
}

func run(ctx context.Context, api *client.APIClient, logger *zap.Logger) error {
	health, err := api.Health(ctx)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	logger.Info("health", zap.String("status", health.Status), zap.String("database", health.Database))

	before, err := api.ListTodos(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	title := "smoke " + time.Now().UTC().Format(time.RFC3339Nano)
	created, err := api.CreateTodo(ctx, title)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if created.Title != title || created.Completed {
		return fmt.Errorf("create: unexpected todo %+v", created)
	}

	after, err := api.ListTodos(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(after) != len(before)+1 || after[0].ID != created.ID {
		return fmt.Errorf("list: created todo is not first (%d -> %d todos)", len(before), len(after))
	}

	toggled, err := api.ToggleTodo(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	if !toggled.Completed {
		return fmt.Errorf("toggle: todo %s still incomplete", created.ID)
	}

	if err := api.DeleteTodo(ctx, created.ID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	final, err := api.ListTodos(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	for _, t := range final {
		if t.ID == created.ID {
			return fmt.Errorf("delete: todo %s still listed", created.ID)
		}
	}

	if err := api.Track(ctx, "smoke_completed", map[string]interface{}{"todos": len(final)}); err != nil {
		return fmt.Errorf("track: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
