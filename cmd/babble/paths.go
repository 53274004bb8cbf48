package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samcharles93/babble/internal/corpus"
)

const envBabbleCorporaDir = "BABBLE_CORPORA_DIR"

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

// corporaDir returns the flag value, falling back to the environment.
func corporaDir(flagValue string) string {
	dir := strings.TrimSpace(flagValue)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envBabbleCorporaDir))
	}
	return dir
}

// resolveCorpusPath picks the corpus to train on at startup. An explicit
// path wins. Otherwise the corpora directory is scanned: a single corpus is
// used directly, several are offered for selection on a terminal. With no
// directory configured it returns "" and the session starts untrained.
// Selection input is read from stdin, which should be the reader the REPL
// continues with so nothing typed ahead is lost.
func resolveCorpusPath(corpusFlag, corporaFlag string, stdin *bufio.Reader, stderr io.Writer) (string, error) {
	corpusFlag = strings.TrimSpace(corpusFlag)
	if corpusFlag != "" {
		return filepath.Clean(corpusFlag), nil
	}

	dir := corporaDir(corporaFlag)
	if dir == "" {
		return "", nil
	}

	corpora, err := corpus.Discover(dir)
	if err != nil {
		return "", err
	}
	switch len(corpora) {
	case 0:
		return "", fmt.Errorf("no corpora found in %s", dir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "run: using corpus %s\n", corpora[0])
		return corpora[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple corpora found in %s but stdin is not interactive; set --corpus",
				dir,
			)
		}
		return selectCorpusInteractively(dir, corpora, stdin, stderr)
	}
}

func selectCorpusInteractively(dir string, corpora []string, stdin *bufio.Reader, stderr io.Writer) (string, error) {
	if len(corpora) == 0 {
		return "", fmt.Errorf("no corpora available in %s", dir)
	}

	_, _ = fmt.Fprintf(stderr, "run: select a corpus from %s\n", dir)
	for i, c := range corpora {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, corpus.DisplayName(dir, c))
	}

	for {
		_, _ = fmt.Fprintf(stderr, "run: enter selection [1-%d]: ", len(corpora))
		line, err := stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --corpus")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(corpora) {
			_, _ = fmt.Fprintf(stderr, "run: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --corpus")
			}
			continue
		}
		return corpora[idx-1], nil
	}
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
