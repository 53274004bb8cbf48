package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/tokenizer"
)

func tokenizeCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "tokenize",
		Usage:     "Split text into tokens (reads stdin when no text is given)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print tokens as a JSON array",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text := strings.Join(cmd.Args().Slice(), " ")
			if cmd.Args().Len() == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			return writeTokens(os.Stdout, tokenizer.Tokenize(text), asJSON)
		},
	}
}

// writeTokens prints one quoted token per line, or a JSON array.
func writeTokens(w io.Writer, toks []string, asJSON bool) error {
	if asJSON {
		if toks == nil {
			toks = []string{}
		}
		enc := json.NewEncoder(w)
		return enc.Encode(toks)
	}
	for _, tok := range toks {
		if _, err := fmt.Fprintln(w, strconv.Quote(tok)); err != nil {
			return err
		}
	}
	return nil
}
