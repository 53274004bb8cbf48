// Package corpus reads training text from disk.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrEmptyPath   = errors.New("corpus path is empty")
	ErrNotFound    = errors.New("corpus not found")
	ErrIsDirectory = errors.New("corpus path is a directory")
)

// Extensions lists the file suffixes Discover treats as corpora.
var Extensions = []string{".txt", ".md"}

// Corpus is the text of one training source.
type Corpus struct {
	Path string
	Text string
}

// Name returns the base name of the corpus file.
func (c Corpus) Name() string {
	return filepath.Base(c.Path)
}

// Load reads the whole file at path. The returned errors wrap ErrEmptyPath,
// ErrNotFound or ErrIsDirectory where they apply, and the underlying os error
// otherwise.
func Load(path string) (Corpus, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Corpus{}, ErrEmptyPath
	}
	path = filepath.Clean(path)

	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Corpus{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Corpus{}, err
	}
	if st.IsDir() {
		return Corpus{}, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, err
	}
	return Corpus{Path: path, Text: string(data)}, nil
}

// Discover lists corpus files directly inside dir, sorted by path.
func Discover(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("corpora directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("corpora path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || !hasCorpusExt(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func hasCorpusExt(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// DisplayName returns path relative to dir when possible.
func DisplayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return rel
}
