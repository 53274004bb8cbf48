package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/babble/internal/logger"
	"github.com/samcharles93/babble/internal/session"
)

func newTestEcho(cfg ServerConfig) *echo.Echo {
	sess := session.New(session.Config{Length: 16, Seed: 1, RetainOnReadError: true})
	server := NewServer(sess, cfg)
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestTrainAndComplete(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	trainRec := doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"ab ab ab","source":"tiny"}`)
	if trainRec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", trainRec.Code, trainRec.Body.String())
	}
	trained := decodeBody[TrainResponse](t, trainRec)
	if trained.Source != "tiny" || trained.Tokens != 5 {
		t.Fatalf("unexpected train response: %+v", trained)
	}

	rec := doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"ab","length":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("completion status: got %d body=%s", rec.Code, rec.Body.String())
	}
	created := decodeBody[CompletionResponse](t, rec)
	if !strings.HasPrefix(created.ID, "cmpl-") {
		t.Fatalf("unexpected completion id %q", created.ID)
	}
	if created.Model != "tiny" {
		t.Fatalf("unexpected model: %q", created.Model)
	}
	if len(created.Choices) != 1 || created.Choices[0].Text != "ab ab " {
		t.Fatalf("unexpected choices: %+v", created.Choices)
	}
	if created.Choices[0].FinishReason != session.FinishLength {
		t.Fatalf("unexpected finish reason: %q", created.Choices[0].FinishReason)
	}
	if created.Usage.PromptTokens != 1 || created.Usage.CompletionTokens != 3 || created.Usage.TotalTokens != 4 {
		t.Fatalf("unexpected usage: %+v", created.Usage)
	}
}

func TestCompletionLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	createRec := doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"hello"}`)
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeBody[CompletionResponse](t, createRec)
	if created.Choices[0].Text != "hello" {
		t.Fatalf("untrained model should echo the prompt, got %q", created.Choices[0].Text)
	}
	if created.Choices[0].FinishReason != session.FinishStop {
		t.Fatalf("unexpected finish reason: %q", created.Choices[0].FinishReason)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/completions/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/completions/"+created.ID, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if !strings.Contains(delRec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete response missing deleted=true: %s", delRec.Body.String())
	}

	getDeletedRec := doJSON(t, e, http.MethodGet, "/v1/completions/"+created.ID, "")
	if getDeletedRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%s", getDeletedRec.Code, getDeletedRec.Body.String())
	}
}

func TestCompletionModelFollowsRetrain(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"ab ab ab","source":"first"}`)
	first := decodeBody[CompletionResponse](t, doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"ab","length":4}`))
	if first.Model != "first" {
		t.Fatalf("unexpected model for first completion: %q", first.Model)
	}

	doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"cd cd cd","source":"second"}`)
	second := decodeBody[CompletionResponse](t, doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"cd","length":4}`))
	if second.Model != "second" || second.Choices[0].Text != "cd cd " {
		t.Fatalf("unexpected second completion: %+v", second)
	}

	stored := decodeBody[CompletionResponse](t, doJSON(t, e, http.MethodGet, "/v1/completions/"+first.ID, ""))
	if stored.Model != "first" {
		t.Fatalf("stored completion relabelled after retrain: %q", stored.Model)
	}
}

func TestCompletionNotStored(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	rec := doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"x","store":false}`)
	created := decodeBody[CompletionResponse](t, rec)
	getRec := doJSON(t, e, http.MethodGet, "/v1/completions/"+created.ID, "")
	if getRec.Code != http.StatusNotFound {
		t.Fatalf("expected unstored completion to be missing, got %d", getRec.Code)
	}
}

func TestCompletionMaxTokens(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"ab ab ab"}`)
	rec := doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"ab","max_tokens":1}`)
	created := decodeBody[CompletionResponse](t, rec)
	if created.Choices[0].Text != "ab " {
		t.Fatalf("unexpected text: %q", created.Choices[0].Text)
	}
	if created.Model != "inline" {
		t.Fatalf("unexpected default source: %q", created.Model)
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{MaxLength: 64})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		want   string
	}{
		{"empty body", "/v1/train", "", http.StatusBadRequest, "request body is empty"},
		{"bad json", "/v1/completions", `{"prompt": nope}`, http.StatusBadRequest, "invalid JSON"},
		{"no source", "/v1/train", `{}`, http.StatusBadRequest, "one of text or path is required"},
		{"both sources", "/v1/train", `{"text":"a","path":"/tmp/a.txt"}`, http.StatusBadRequest, "mutually exclusive"},
		{"files disabled", "/v1/train", `{"path":"/tmp/a.txt"}`, http.StatusForbidden, "disabled"},
		{"negative length", "/v1/completions", `{"prompt":"a","length":-1}`, http.StatusBadRequest, "length must not be negative"},
		{"negative max tokens", "/v1/completions", `{"prompt":"a","max_tokens":-2}`, http.StatusBadRequest, "max_tokens"},
		{"length over limit", "/v1/completions", `{"prompt":"ab","length":1000000000000}`, http.StatusBadRequest, "length must not exceed 64"},
		{"length just over limit", "/v1/completions", `{"prompt":"ab","length":65}`, http.StatusBadRequest, "length must not exceed 64"},
		{"max tokens over limit", "/v1/completions", `{"prompt":"a b","max_tokens":62}`, http.StatusBadRequest, "must not exceed 64 tokens"},
		{"max tokens near overflow", "/v1/completions", `{"prompt":"a","max_tokens":9223372036854775807}`, http.StatusBadRequest, "must not exceed 64 tokens"},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: unexpected error body: %s", tc.name, rec.Body.String())
		}
	}
}

func TestTrainFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(path, []byte("ab ab ab"), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	e := newTestEcho(ServerConfig{AllowFileTraining: true})
	rec := doJSON(t, e, http.MethodPost, "/v1/train", `{"path":`+quote(path)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[TrainResponse](t, rec); got.Source != "corpus.txt" {
		t.Fatalf("unexpected source: %q", got.Source)
	}

	missing := doJSON(t, e, http.MethodPost, "/v1/train", `{"path":`+quote(filepath.Join(dir, "nope.txt"))+`}`)
	if missing.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing corpus, got %d body=%s", missing.Code, missing.Body.String())
	}

	// The failed read keeps the previous model.
	info := doJSON(t, e, http.MethodGet, "/v1/model", "")
	if got := decodeBody[session.Info](t, info); got.Source != "corpus.txt" || !got.Trained {
		t.Fatalf("expected model to be retained, got %+v", got)
	}
}

func TestTrainRateLimit(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{TrainRate: 0.001, TrainBurst: 1})
	first := doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"a"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first train: got %d body=%s", first.Code, first.Body.String())
	}
	second := doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"b"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", second.Code, second.Body.String())
	}
}

func TestModelInfoAndReset(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"a b","source":"ab"}`)

	info := decodeBody[session.Info](t, doJSON(t, e, http.MethodGet, "/v1/model", ""))
	if info.Source != "ab" || info.Stats.Contexts != 3 {
		t.Fatalf("unexpected model info: %+v", info)
	}

	resetRec := doJSON(t, e, http.MethodDelete, "/v1/model", "")
	if resetRec.Code != http.StatusNoContent {
		t.Fatalf("reset status: got %d", resetRec.Code)
	}
	info = decodeBody[session.Info](t, doJSON(t, e, http.MethodGet, "/v1/model", ""))
	if info.Trained || info.Stats.Contexts != 0 {
		t.Fatalf("expected empty model after reset, got %+v", info)
	}
}

func TestTokenizeEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	rec := doJSON(t, e, http.MethodPost, "/v1/tokenize", `{"text":"Hello, World!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("tokenize status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeBody[TokenizeResponse](t, rec)
	want := []string{"Hello", ",", " ", "World", "!"}
	if got.Count != len(want) {
		t.Fatalf("unexpected count: %d", got.Count)
	}
	for i := range want {
		if got.Tokens[i] != want[i] {
			t.Fatalf("token %d: got %q want %q", i, got.Tokens[i], want[i])
		}
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestEcho(ServerConfig{})
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNilModel(t *testing.T) {
	t.Parallel()

	e := echo.New()
	NewServer(nil, ServerConfig{}).Register(e)
	rec := doJSON(t, e, http.MethodPost, "/v1/completions", `{"prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without a model, got %d", rec.Code)
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sess := session.New(session.Config{Seed: 1})
	e := echo.New()
	e.Use(ContextLogger(logger.JSON(&buf, slog.LevelInfo)))
	NewServer(sess, ServerConfig{}).Register(e)

	rec := doJSON(t, e, http.MethodPost, "/v1/train", `{"text":"a b","source":"logged"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"model trained"`) || !strings.Contains(out, `"source":"logged"`) {
		t.Fatalf("expected training log through request logger, got: %s", out)
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
