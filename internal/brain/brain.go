// Package brain implements a variable-order frequency model over tokens.
//
// Training counts, for every token, which token followed each of the 1 to
// MaxContextSize tokens before it. Generation extends a prompt one token at
// a time, looking up the longest context that has been seen and drawing the
// next token in proportion to how often it followed that context.
package brain

import (
	"maps"
	"slices"
	"strings"

	"github.com/samcharles93/babble/internal/sampling"
	"github.com/samcharles93/babble/internal/tokenizer"
)

// Brain owns the frequency table: context -> next token -> count.
// The table is the whole learned state. A Brain is not safe for concurrent
// use; callers sharing one must synchronize.
type Brain struct {
	tokens map[Context]map[string]int
}

// New returns an untrained Brain.
func New() *Brain {
	return &Brain{tokens: make(map[Context]map[string]int)}
}

// Reset discards everything the model has learned.
func (b *Brain) Reset() {
	b.tokens = make(map[Context]map[string]int)
}

// Train replaces the model's state with statistics gathered from text.
// Training is never additive: anything learned earlier is discarded first.
func (b *Brain) Train(text string) {
	b.Reset()

	var window [MaxContextSize]string
	n := 0
	for tok := range tokenizer.Tokens(text) {
		for cs := 1; cs <= n; cs++ {
			b.observe(contextOf(window[n-cs:n]), tok)
		}
		if n == MaxContextSize {
			copy(window[:], window[1:])
			n--
		}
		window[n] = tok
		n++
	}
}

func (b *Brain) observe(ctx Context, next string) {
	succ, ok := b.tokens[ctx]
	if !ok {
		succ = make(map[string]int, 1)
		b.tokens[ctx] = succ
	}
	succ[next]++
}

// Generate tokenizes prompt and extends it until it holds length tokens or
// no known context matches the tail. The tokens are joined without
// separators. If s is nil a clock-seeded sampler is used.
func (b *Brain) Generate(prompt string, length int, s *sampling.Sampler) string {
	return strings.Join(b.Continue(tokenizer.Tokenize(prompt), length, s), "")
}

// Continue extends out in place (it may be appended to) and returns the
// result. It never returns more than max(len(out), length) tokens.
func (b *Brain) Continue(out []string, length int, s *sampling.Sampler) []string {
	if s == nil {
		s = sampling.NewSampler(sampling.SamplerConfig{Seed: -1})
	}
	var (
		cands   []string
		weights []int
	)
	for len(out) < length {
		succ, ok := b.lookup(out)
		if !ok {
			break
		}
		// Map order is random; sort so a seeded sampler is reproducible.
		cands = slices.AppendSeq(cands[:0], maps.Keys(succ))
		slices.Sort(cands)
		weights = weights[:0]
		for _, c := range cands {
			weights = append(weights, succ[c])
		}
		idx := s.Sample(weights)
		if idx < 0 {
			break
		}
		out = append(out, cands[idx])
	}
	return out
}

// lookup returns the successors of the longest context ending at the tail
// of out.
func (b *Brain) lookup(out []string) (map[string]int, bool) {
	for cs := min(MaxContextSize, len(out)); cs >= 1; cs-- {
		if succ, ok := b.tokens[contextOf(out[len(out)-cs:])]; ok {
			return succ, true
		}
	}
	return nil, false
}

// Successors returns a copy of the next-token counts recorded for the
// context made of tokens, or nil if that context was never seen.
func (b *Brain) Successors(tokens ...string) map[string]int {
	ctx, ok := NewContext(tokens...)
	if !ok {
		return nil
	}
	succ, ok := b.tokens[ctx]
	if !ok {
		return nil
	}
	return maps.Clone(succ)
}

// Len returns the number of distinct contexts in the table.
func (b *Brain) Len() int {
	return len(b.tokens)
}

// Empty reports whether the model has learned nothing.
func (b *Brain) Empty() bool {
	return len(b.tokens) == 0
}

// Stats summarizes the frequency table.
type Stats struct {
	// Contexts is the number of distinct context keys.
	Contexts int `json:"contexts"`
	// Transitions is the number of distinct (context, next token) pairs.
	Transitions int `json:"transitions"`
	// Observations is the sum of all counts.
	Observations int `json:"observations"`
	// ContextsByOrder[i] counts contexts of length i+1.
	ContextsByOrder [MaxContextSize]int `json:"contexts_by_order"`
}

// Stats walks the table and returns its summary.
func (b *Brain) Stats() Stats {
	var st Stats
	st.Contexts = len(b.tokens)
	for ctx, succ := range b.tokens {
		st.ContextsByOrder[ctx.n-1]++
		st.Transitions += len(succ)
		for _, n := range succ {
			st.Observations += n
		}
	}
	return st
}
