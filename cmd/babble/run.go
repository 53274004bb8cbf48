package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/logger"
	"github.com/samcharles93/babble/internal/session"
)

func runCmd() *cli.Command {
	var (
		corpusPath string
		prompt     string
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Train on a corpus and continue prompts interactively",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:        "corpus",
				Aliases:     []string{"c"},
				Usage:       "corpus file to train on at startup",
				Destination: &corpusPath,
			},
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "continue this prompt once and exit",
				Destination: &prompt,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applySessionConfig(cmd, fileConfig)

			sess := session.New(sessionConfig())
			lines := newLineEditor(os.Stdin, os.Stdout)
			path, err := resolveCorpusPath(corpusPath, corporaDirFlag, lines.reader, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("run: %v", err), 1)
			}
			if path != "" {
				if _, err := sess.TrainFile(ctx, path); err != nil {
					return cli.Exit(fmt.Sprintf("run: %v", err), 1)
				}
			}

			if cmd.IsSet("prompt") {
				return runOnce(ctx, sess, prompt, os.Stdout)
			}

			logger.FromContext(ctx).Debug("starting repl", "length", length, "seed", seed)
			r := &repl{
				sess:   sess,
				lines:  lines,
				out:    os.Stdout,
				length: int(length),
			}
			return r.run(ctx)
		},
	}
}

func runOnce(ctx context.Context, sess *session.Session, prompt string, out io.Writer) error {
	res, err := sess.Prompt(ctx, prompt, int(length))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, res.Text)
	return err
}
