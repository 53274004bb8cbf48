// Package session owns the active model on behalf of an interactive shell
// or the HTTP server. It loads corpora, replaces the model on each training
// request, and serializes access so one model can serve several callers.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samcharles93/babble/internal/brain"
	"github.com/samcharles93/babble/internal/corpus"
	"github.com/samcharles93/babble/internal/logger"
	"github.com/samcharles93/babble/internal/sampling"
	"github.com/samcharles93/babble/internal/tokenizer"
)

// DefaultLength is the response budget in tokens when none is requested.
const DefaultLength = 256

// Config configures a Session.
type Config struct {
	// Length is the default target length in tokens, prompt included.
	Length int
	// Seed for the sampler; -1 seeds from the clock.
	Seed int64
	// RetainOnReadError keeps the current model when a corpus cannot be
	// read. When false the model is cleared before the read is attempted.
	RetainOnReadError bool
}

// DefaultConfig returns the configuration used by the CLI when nothing is set.
func DefaultConfig() Config {
	return Config{
		Length:            DefaultLength,
		Seed:              -1,
		RetainOnReadError: true,
	}
}

// Session holds one model for the lifetime of a shell or server.
type Session struct {
	mu        sync.Mutex
	cfg       Config
	brain     *brain.Brain
	sampler   *sampling.Sampler
	source    string
	trainedAt time.Time
	clock     func() time.Time
}

// New returns a Session with an untrained model.
func New(cfg Config) *Session {
	if cfg.Length <= 0 {
		cfg.Length = DefaultLength
	}
	return &Session{
		cfg:     cfg,
		brain:   brain.New(),
		sampler: sampling.NewSampler(sampling.SamplerConfig{Seed: cfg.Seed}),
		clock:   time.Now,
	}
}

// TrainResult describes a completed training run.
type TrainResult struct {
	Source   string        `json:"source"`
	Tokens   int           `json:"tokens"`
	Stats    brain.Stats   `json:"stats"`
	Duration time.Duration `json:"duration"`
}

// TrainFile reads the corpus at path and retrains the model from it. On a
// read error the model is kept or cleared according to RetainOnReadError,
// and the error is returned.
func (s *Session) TrainFile(ctx context.Context, path string) (TrainResult, error) {
	log := logger.FromContext(ctx)

	if !s.cfg.RetainOnReadError {
		s.Reset(ctx)
	}
	c, err := corpus.Load(path)
	if err != nil {
		log.Warn("corpus read failed", "path", path, "error", err, "model_retained", s.cfg.RetainOnReadError)
		return TrainResult{}, fmt.Errorf("load corpus: %w", err)
	}
	return s.TrainText(ctx, c.Name(), c.Text), nil
}

// TrainText replaces the model with one trained on text. The previous model
// keeps serving Prompt calls until the new one is ready.
func (s *Session) TrainText(ctx context.Context, source, text string) TrainResult {
	start := time.Now()
	b := brain.New()
	b.Train(text)
	res := TrainResult{
		Source:   source,
		Tokens:   tokenizer.Count(text),
		Stats:    b.Stats(),
		Duration: time.Since(start),
	}

	s.mu.Lock()
	s.brain = b
	s.source = source
	s.trainedAt = s.clock()
	s.mu.Unlock()

	logger.FromContext(ctx).Info("model trained",
		"source", source,
		"tokens", res.Tokens,
		"contexts", res.Stats.Contexts,
		"transitions", res.Stats.Transitions,
		"duration", res.Duration,
	)
	return res
}

// Reset discards the current model.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.brain = brain.New()
	s.source = ""
	s.trainedAt = time.Time{}
	s.mu.Unlock()
	logger.FromContext(ctx).Debug("model reset")
}

// Finish reasons reported in Result.
const (
	FinishLength = "length"
	FinishStop   = "stop"
)

// Result is the outcome of a Prompt call.
type Result struct {
	// Source names the corpus of the model that produced Text.
	Source          string        `json:"source,omitempty"`
	Text            string        `json:"text"`
	PromptTokens    int           `json:"prompt_tokens"`
	GeneratedTokens int           `json:"generated_tokens"`
	Length          int           `json:"length"`
	FinishReason    string        `json:"finish_reason"`
	Duration        time.Duration `json:"duration"`
}

// Prompt continues prompt up to length tokens (prompt included). A length
// of zero or less uses the configured default. The only error is a done
// context.
func (s *Session) Prompt(ctx context.Context, prompt string, length int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if length <= 0 {
		length = s.cfg.Length
	}

	start := time.Now()
	toks := tokenizer.Tokenize(prompt)
	promptTokens := len(toks)

	s.mu.Lock()
	toks = s.brain.Continue(toks, length, s.sampler)
	source := s.source
	s.mu.Unlock()

	res := Result{
		Source:          source,
		Text:            strings.Join(toks, ""),
		PromptTokens:    promptTokens,
		GeneratedTokens: len(toks) - promptTokens,
		Length:          length,
		FinishReason:    FinishLength,
		Duration:        time.Since(start),
	}
	if len(toks) < length {
		res.FinishReason = FinishStop
	}
	logger.FromContext(ctx).Debug("prompt completed",
		"prompt_tokens", res.PromptTokens,
		"generated_tokens", res.GeneratedTokens,
		"finish_reason", res.FinishReason,
	)
	return res, nil
}

// Info describes the active model.
type Info struct {
	Source    string      `json:"source,omitempty"`
	Trained   bool        `json:"trained"`
	TrainedAt *time.Time  `json:"trained_at,omitempty"`
	Length    int         `json:"default_length"`
	Seed      int64       `json:"seed"`
	Stats     brain.Stats `json:"stats"`
}

// Info returns a snapshot of the active model's metadata and statistics.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		Source:  s.source,
		Trained: !s.trainedAt.IsZero(),
		Length:  s.cfg.Length,
		Seed:    s.sampler.Seed(),
		Stats:   s.brain.Stats(),
	}
	if !s.trainedAt.IsZero() {
		t := s.trainedAt
		info.TrainedAt = &t
	}
	return info
}
