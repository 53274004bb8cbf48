package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samcharles93/babble/internal/corpus"
	"github.com/samcharles93/babble/internal/logger"
)

func writeCorpus(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func quietContext() context.Context {
	return logger.WithContext(context.Background(), logger.Discard())
}

func TestTrainFileAndPrompt(t *testing.T) {
	t.Parallel()

	ctx := quietContext()
	s := New(Config{Seed: 1, RetainOnReadError: true})
	res, err := s.TrainFile(ctx, writeCorpus(t, "ab.txt", "ab ab ab"))
	if err != nil {
		t.Fatalf("TrainFile returned error: %v", err)
	}
	if res.Source != "ab.txt" || res.Tokens != 5 {
		t.Fatalf("unexpected train result: %+v", res)
	}

	out, err := s.Prompt(ctx, "ab", 4)
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}
	if out.Text != "ab ab " {
		t.Fatalf("unexpected text: %q", out.Text)
	}
	if out.Source != "ab.txt" {
		t.Fatalf("unexpected result source: %q", out.Source)
	}
	if out.PromptTokens != 1 || out.GeneratedTokens != 3 || out.FinishReason != FinishLength {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestPromptDefaultLength(t *testing.T) {
	t.Parallel()

	ctx := quietContext()
	s := New(Config{Seed: 1})
	if s.cfg.Length != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, s.cfg.Length)
	}
	s.TrainText(ctx, "loop", strings.Repeat("la ", 400))
	out, err := s.Prompt(ctx, "la", 0)
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}
	if out.Length != DefaultLength || out.PromptTokens+out.GeneratedTokens != DefaultLength {
		t.Fatalf("expected %d tokens, got %+v", DefaultLength, out)
	}
}

func TestPromptUntrained(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig())
	out, err := s.Prompt(quietContext(), "It was a", 256)
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}
	if out.Text != "It was a" || out.GeneratedTokens != 0 || out.FinishReason != FinishStop {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestPromptCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(quietContext())
	cancel()
	s := New(DefaultConfig())
	if _, err := s.Prompt(ctx, "x", 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFailedReadRetainsModel(t *testing.T) {
	t.Parallel()

	ctx := quietContext()
	s := New(Config{Seed: 1, RetainOnReadError: true})
	if _, err := s.TrainFile(ctx, writeCorpus(t, "ab.txt", "ab ab ab")); err != nil {
		t.Fatalf("TrainFile returned error: %v", err)
	}

	_, err := s.TrainFile(ctx, filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, corpus.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	info := s.Info()
	if info.Source != "ab.txt" || !info.Trained || info.Stats.Contexts == 0 {
		t.Fatalf("expected previous model to survive, got %+v", info)
	}
}

func TestFailedReadClearsModel(t *testing.T) {
	t.Parallel()

	ctx := quietContext()
	s := New(Config{Seed: 1, RetainOnReadError: false})
	if _, err := s.TrainFile(ctx, writeCorpus(t, "ab.txt", "ab ab ab")); err != nil {
		t.Fatalf("TrainFile returned error: %v", err)
	}
	if _, err := s.TrainFile(ctx, t.TempDir()); !errors.Is(err, corpus.ErrIsDirectory) {
		t.Fatalf("expected ErrIsDirectory, got %v", err)
	}
	info := s.Info()
	if info.Trained || info.Stats.Contexts != 0 || info.Source != "" {
		t.Fatalf("expected cleared model, got %+v", info)
	}
}

func TestRetrainReplacesModel(t *testing.T) {
	t.Parallel()

	ctx := quietContext()
	s := New(Config{Seed: 3})
	s.TrainText(ctx, "first", "red red red")
	s.TrainText(ctx, "second", "blue blue blue")

	out, err := s.Prompt(ctx, "red", 10)
	if err != nil {
		t.Fatalf("Prompt returned error: %v", err)
	}
	if out.Text != "red" {
		t.Fatalf("first corpus leaked into the second model: %q", out.Text)
	}
	if s.Info().Source != "second" {
		t.Fatalf("unexpected source: %q", s.Info().Source)
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	s := New(Config{Seed: 42, Length: 32})
	at := time.Date(2024, 4, 4, 13, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return at }

	info := s.Info()
	if info.Trained || info.TrainedAt != nil {
		t.Fatalf("expected untrained info, got %+v", info)
	}
	s.TrainText(quietContext(), "x", "a b")
	info = s.Info()
	if info.TrainedAt == nil || !info.TrainedAt.Equal(at) {
		t.Fatalf("unexpected trained_at: %v", info.TrainedAt)
	}
	if info.Seed != 42 || info.Length != 32 || info.Stats.Contexts != 3 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestTrainLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.JSON(&buf, slog.LevelInfo))
	s := New(DefaultConfig())
	s.TrainText(ctx, "logged", "a b c")
	if !strings.Contains(buf.String(), `"source":"logged"`) {
		t.Fatalf("expected training log line, got: %s", buf.String())
	}
}
