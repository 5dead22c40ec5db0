package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"entangledu/internal/learner/app"
	"entangledu/internal/learner/cli"
	"entangledu/internal/platform/config"
	"entangledu/internal/platform/logger"
)

// main runs the learner CLI. Configuration comes from the environment; logs go
// to stderr so command output stays clean.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context) (*app.App, error) {
		cfg, err := config.LearnerFromEnv()
		if err != nil {
			return nil, err
		}
		return app.Open(ctx, cfg, logger.NewWithWriter(os.Stderr, cfg.LogLevel))
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
