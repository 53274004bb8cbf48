package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/babble/internal/version"
)

func versionCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print version information as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(info)
			}
			fmt.Printf("version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			return nil
		},
	}
}
