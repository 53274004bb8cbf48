package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/session"
)

var (
	configFile        string
	corporaDirFlag    string
	length            int64
	seed              int64
	retainOnReadError bool
	logLevel          string
	logFormat         string
	debug             bool
)

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpora-dir",
			Aliases:     []string{"corpora"},
			Usage:       "directory holding .txt/.md corpora",
			Sources:     cli.EnvVars(envBabbleCorporaDir),
			Destination: &corporaDirFlag,
		},
		&cli.Int64Flag{
			Name:        "length",
			Aliases:     []string{"n"},
			Usage:       "response length in tokens, prompt included",
			Value:       session.DefaultLength,
			Destination: &length,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampler seed (-1 = random)",
			Value:       -1,
			Destination: &seed,
		},
		&cli.BoolFlag{
			Name:        "retain-on-read-error",
			Usage:       "keep the current model when a corpus cannot be read",
			Value:       true,
			Destination: &retainOnReadError,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       configPath(),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func sessionConfig() session.Config {
	return session.Config{
		Length:            int(length),
		Seed:              seed,
		RetainOnReadError: retainOnReadError,
	}
}
