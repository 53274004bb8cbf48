package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// lineEditor reads prompt lines from stdin. On a Linux terminal it edits in
// raw mode with cursor movement and history; otherwise it reads plain lines.
type lineEditor struct {
	in      *os.File
	out     io.Writer
	reader  *bufio.Reader
	history []string
}

func newLineEditor(in *os.File, out io.Writer) *lineEditor {
	return &lineEditor{
		in:     in,
		out:    out,
		reader: bufio.NewReader(in),
	}
}

// AddHistory records line for up/down recall. Blank lines and immediate
// repeats are skipped.
func (le *lineEditor) AddHistory(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if n := len(le.history); n > 0 && le.history[n-1] == line {
		return
	}
	le.history = append(le.history, line)
}

// readBuffered reads one line without terminal control. A final line
// without a newline is returned before io.EOF.
func (le *lineEditor) readBuffered(prompt string) (string, error) {
	_, _ = fmt.Fprint(le.out, prompt)
	s, err := le.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && s != "" {
			return trimTrailingNewline(s), nil
		}
		return "", err
	}
	return trimTrailingNewline(s), nil
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
