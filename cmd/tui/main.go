package main

import (
	"fmt"
	"os"

	"cursor-todo/internal/client"
	"cursor-todo/internal/tui"

	"go.uber.org/zap"
)

func main() {
	// The alt screen owns stdout, so client logs go to a file when asked for.
	logger := zap.NewNop()
	if path := os.Getenv("TUI_LOG_FILE"); path != "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
		if l, err := cfg.Build(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	tracer := client.NewTracer(logger)
	apiClient := client.NewAPIClient(os.Getenv("API_BASE_URL"), tracer)
	tracker := client.NewTracker(apiClient, logger)
	defer tracker.Flush()

	controller := client.NewController(apiClient, tracker, logger)
	if err := tui.Run(controller, tracer); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
