package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/corpus"
	"github.com/samcharles93/babble/internal/tokenizer"
)

func corporaCmd() *cli.Command {
	var count bool

	return &cli.Command{
		Name:  "corpora",
		Usage: "List corpora in the corpora directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "corpora-dir",
				Aliases:     []string{"corpora"},
				Usage:       "directory holding .txt/.md corpora",
				Sources:     cli.EnvVars(envBabbleCorporaDir),
				Destination: &corporaDirFlag,
			},
			&cli.BoolFlag{
				Name:        "count",
				Usage:       "read each corpus and show its token count",
				Destination: &count,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if fileConfig.CorporaDir != "" && !cmd.IsSet("corpora-dir") {
				corporaDirFlag = fileConfig.CorporaDir
			}
			dir := corporaDir(corporaDirFlag)
			if dir == "" {
				return cli.Exit("corpora: no corpora directory; set --corpora-dir or "+envBabbleCorporaDir, 1)
			}
			paths, err := corpus.Discover(dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("corpora: %v", err), 1)
			}
			return listCorpora(os.Stdout, dir, paths, count)
		},
	}
}

func listCorpora(w io.Writer, dir string, paths []string, count bool) error {
	if len(paths) == 0 {
		_, err := fmt.Fprintf(w, "no corpora in %s\n", dir)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range paths {
		name := corpus.DisplayName(dir, p)
		if !count {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, p)
			continue
		}
		c, err := corpus.Load(p)
		if err != nil {
			_, _ = fmt.Fprintf(tw, "%s\t%s\terr: %v\n", name, p, err)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d tokens\n", name, p, tokenizer.Count(c.Text))
	}
	return tw.Flush()
}
