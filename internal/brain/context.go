package brain

import (
	"strconv"
	"strings"
)

// MaxContextSize is the longest run of preceding tokens the model keys on.
const MaxContextSize = 5

// Context is an ordered run of 1 to MaxContextSize tokens. It is comparable,
// so two contexts are equal exactly when their tokens are equal in order;
// contexts of different lengths never compare equal.
type Context struct {
	n    int
	toks [MaxContextSize]string
}

// NewContext builds a context from tokens. It reports false when the number
// of tokens is outside [1, MaxContextSize].
func NewContext(tokens ...string) (Context, bool) {
	if len(tokens) < 1 || len(tokens) > MaxContextSize {
		return Context{}, false
	}
	return contextOf(tokens), true
}

// contextOf copies tokens into a Context. len(tokens) must be in range.
func contextOf(tokens []string) Context {
	var c Context
	c.n = copy(c.toks[:], tokens)
	return c
}

// Len returns the number of tokens in the context.
func (c Context) Len() int {
	return c.n
}

// Tokens returns a copy of the context's tokens, oldest first.
func (c Context) Tokens() []string {
	out := make([]string, c.n)
	copy(out, c.toks[:c.n])
	return out
}

func (c Context) String() string {
	parts := make([]string, c.n)
	for i := range parts {
		parts[i] = strconv.Quote(c.toks[i])
	}
	return "[" + strings.Join(parts, " ") + "]"
}
