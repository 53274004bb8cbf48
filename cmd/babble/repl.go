package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samcharles93/babble/internal/brain"
	"github.com/samcharles93/babble/internal/session"
)

const banner = `# babble

Use ` + "`:train file.txt`" + ` to train the algorithm on given file; write
anything else for the algorithm to respond; Ctrl-C to quit.

A few examples:

> :train sources/shakespeare.txt
> ACT III

> :train sources/1984.txt
> It was a

Other commands: :help, :stats, :reset, :quit

----
`

const helpText = `:train <file>   retrain from scratch on the given file
:stats          show what the current model has learned
:reset          forget everything
:help           show this help
:quit, :exit    leave (Ctrl-C and Ctrl-D work too)

Anything else is a prompt for the model to continue.
`

type lineReader interface {
	ReadLine(prompt string) (string, error)
	AddHistory(line string)
}

type repl struct {
	sess   *session.Session
	lines  lineReader
	out    io.Writer
	length int
}

func (r *repl) run(ctx context.Context) error {
	_, _ = fmt.Fprintln(r.out, banner)
	for {
		line, err := r.lines.ReadLine("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if r.handle(ctx, line) {
			return nil
		}
	}
}

// handle processes one input line and reports whether the session should
// end.
func (r *repl) handle(ctx context.Context, line string) bool {
	if strings.HasPrefix(line, "> :") {
		_, _ = fmt.Fprintln(r.out, "err: You don't have to write `> `, that's just the prompt sign used")
		_, _ = fmt.Fprintln(r.out, "     to distinguish between commands and algorithm's output.")
		_, _ = fmt.Fprintln(r.out)
		return false
	}
	if strings.TrimSpace(line) == "" {
		return false
	}

	r.lines.AddHistory(line)

	name, arg, isCommand := parseCommand(line)
	if !isCommand {
		r.prompt(ctx, line)
		return false
	}

	switch name {
	case "train":
		if arg == "" {
			_, _ = fmt.Fprintln(r.out, "err: usage: :train <file>")
		} else if _, err := r.sess.TrainFile(ctx, arg); err != nil {
			_, _ = fmt.Fprintf(r.out, "err: %v\n", err)
		}
	case "stats":
		writeStats(r.out, r.sess.Info())
	case "reset":
		r.sess.Reset(ctx)
	case "help":
		_, _ = fmt.Fprint(r.out, helpText)
	case "quit", "exit":
		return true
	}
	_, _ = fmt.Fprintln(r.out)
	return false
}

func (r *repl) prompt(ctx context.Context, line string) {
	res, err := r.sess.Prompt(ctx, line, r.length)
	if err != nil {
		_, _ = fmt.Fprintf(r.out, "err: %v\n\n", err)
		return
	}
	_, _ = fmt.Fprintln(r.out, res.Text)
	_, _ = fmt.Fprintln(r.out)
}

var replCommands = map[string]bool{
	"train": true,
	"stats": true,
	"reset": true,
	"help":  true,
	"quit":  true,
	"exit":  true,
}

// parseCommand splits ":name arg" lines. Lines naming an unknown command are
// not commands and go to the model as prompts.
func parseCommand(line string) (name, arg string, ok bool) {
	rest, found := strings.CutPrefix(line, ":")
	if !found {
		return "", "", false
	}
	name, arg, _ = strings.Cut(rest, " ")
	if !replCommands[name] {
		return "", "", false
	}
	return name, strings.TrimSpace(arg), true
}

func writeStats(w io.Writer, info session.Info) {
	if !info.Trained {
		_, _ = fmt.Fprintln(w, "model: untrained")
		return
	}
	_, _ = fmt.Fprintf(w, "model: %s\n", info.Source)
	_, _ = fmt.Fprintf(w, "contexts: %d  transitions: %d  observations: %d\n",
		info.Stats.Contexts, info.Stats.Transitions, info.Stats.Observations)
	for i := 0; i < brain.MaxContextSize; i++ {
		_, _ = fmt.Fprintf(w, "  order %d: %d contexts\n", i+1, info.Stats.ContextsByOrder[i])
	}
}
