package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/api"
	"github.com/samcharles93/babble/internal/logger"
	"github.com/samcharles93/babble/internal/session"
)

func serveCmd() *cli.Command {
	var (
		addr              string
		readTimeout       time.Duration
		corpusPath        string
		allowFileTraining bool
		trainRate         float64
		trainBurst        int64
		storeLimit        int64
		maxLength         int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the training and completion REST API",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.StringFlag{
				Name:        "corpus",
				Aliases:     []string{"c"},
				Usage:       "corpus file to train on before serving",
				Destination: &corpusPath,
			},
			&cli.BoolFlag{
				Name:        "allow-file-training",
				Usage:       "let POST /v1/train read corpus files from this machine",
				Destination: &allowFileTraining,
			},
			&cli.FloatFlag{
				Name:        "train-rate",
				Usage:       "training requests per second (0 = unlimited)",
				Value:       1,
				Destination: &trainRate,
			},
			&cli.Int64Flag{
				Name:        "train-burst",
				Usage:       "training requests allowed in a burst",
				Value:       2,
				Destination: &trainBurst,
			},
			&cli.Int64Flag{
				Name:        "max-length",
				Usage:       "largest completion length a request may ask for, prompt included",
				Value:       api.DefaultMaxLength,
				Destination: &maxLength,
			},
			&cli.Int64Flag{
				Name:        "store-limit",
				Usage:       "stored completions kept in memory",
				Value:       api.DefaultStoreLimit,
				Destination: &storeLimit,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, fileConfig, &addr, &maxLength)
			log := logger.FromContext(ctx)

			sess := session.New(sessionConfig())
			if corpusPath != "" {
				if _, err := sess.TrainFile(ctx, corpusPath); err != nil {
					return cli.Exit(fmt.Sprintf("serve: %v", err), 1)
				}
			}

			server := api.NewServer(sess, api.ServerConfig{
				AllowFileTraining: allowFileTraining,
				TrainRate:         trainRate,
				TrainBurst:        int(trainBurst),
				StoreLimit:        int(storeLimit),
				MaxLength:         int(maxLength),
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			e.Use(api.ContextLogger(log))
			server.Register(e)
			log.Info("starting server", "address", addr, "file_training", allowFileTraining)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
