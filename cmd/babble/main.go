package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "babble",
		Usage: "Variable-order token model that learns a corpus and continues prompts",
		Flags: loggingFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("config: %v", err), 1)
			}
			fileConfig = cfg
			applyLoggingConfig(cmd, cfg)
			return logger.WithContext(ctx, newLogger()), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			runCmd(),
			serveCmd(),
			tokenizeCmd(),
			corporaCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	return logger.ForFormat(logFormat, os.Stderr, level)
}
