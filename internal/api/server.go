package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/babble/internal/logger"
	"github.com/samcharles93/babble/internal/session"
	"github.com/samcharles93/babble/internal/tokenizer"
)

// Model is the part of a session the server drives.
type Model interface {
	TrainText(ctx context.Context, source, text string) session.TrainResult
	TrainFile(ctx context.Context, path string) (session.TrainResult, error)
	Prompt(ctx context.Context, prompt string, length int) (session.Result, error)
	Info() session.Info
	Reset(ctx context.Context)
}

type ServerConfig struct {
	// AllowFileTraining lets /v1/train read corpora from the server's disk.
	AllowFileTraining bool
	// TrainRate is the number of training requests allowed per second,
	// with a burst of TrainBurst. Zero or less disables the limit.
	TrainRate  float64
	TrainBurst int
	StoreLimit int
	// MaxLength caps the total token budget of one completion, prompt
	// included. Zero or less uses DefaultMaxLength.
	MaxLength int
}

// DefaultMaxLength is the completion budget cap when none is configured.
const DefaultMaxLength = 4096

type Server struct {
	model        Model
	store        *CompletionStore
	cfg          ServerConfig
	trainLimiter *rate.Limiter
	clock        func() time.Time
}

func NewServer(model Model, cfg ServerConfig) *Server {
	limit := rate.Inf
	if cfg.TrainRate > 0 {
		limit = rate.Limit(cfg.TrainRate)
	}
	burst := cfg.TrainBurst
	if burst <= 0 {
		burst = 1
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	return &Server{
		model:        model,
		store:        NewCompletionStore(cfg.StoreLimit),
		cfg:          cfg,
		trainLimiter: rate.NewLimiter(limit, burst),
		clock:        time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)

	e.POST("/v1/train", s.handleTrain)
	e.GET("/v1/model", s.handleGetModel)
	e.DELETE("/v1/model", s.handleResetModel)

	e.POST("/v1/completions", s.handleCreateCompletion)
	e.GET("/v1/completions/:id", s.handleGetCompletion)
	e.DELETE("/v1/completions/:id", s.handleDeleteCompletion)

	e.POST("/v1/tokenize", s.handleTokenize)
}

// ContextLogger attaches log to every request context so session logging
// follows the server's configuration.
func ContextLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))
			return next(c)
		}
	}
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrain(c *echo.Context) error {
	if s.model == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", ErrNotConfigured.Error(), "", "")
	}
	if !s.trainLimiter.Allow() {
		return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "training rate limit exceeded", "", "")
	}
	req, err := decodeJSON[TrainRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	path := strings.TrimSpace(req.Path)
	var res session.TrainResult
	switch {
	case req.Text != nil && path != "":
		return writeBadRequest(c, "text and path are mutually exclusive")
	case req.Text != nil:
		source := strings.TrimSpace(req.Source)
		if source == "" {
			source = "inline"
		}
		res = s.model.TrainText(ctx, source, *req.Text)
	case path != "":
		if !s.cfg.AllowFileTraining {
			return writeError(c, http.StatusForbidden, "permission_error", "training from server files is disabled", "path", "")
		}
		res, err = s.model.TrainFile(ctx, path)
		if err != nil {
			return writeError(c, http.StatusUnprocessableEntity, "corpus_error", err.Error(), "path", "")
		}
	default:
		return writeBadRequest(c, "one of text or path is required")
	}

	return c.JSON(http.StatusOK, TrainResponse{
		Object:     "model.training",
		Source:     res.Source,
		Tokens:     res.Tokens,
		Stats:      res.Stats,
		DurationMS: res.Duration.Milliseconds(),
	})
}

func (s *Server) handleGetModel(c *echo.Context) error {
	if s.model == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", ErrNotConfigured.Error(), "", "")
	}
	return c.JSON(http.StatusOK, s.model.Info())
}

func (s *Server) handleResetModel(c *echo.Context) error {
	if s.model == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", ErrNotConfigured.Error(), "", "")
	}
	s.model.Reset(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCreateCompletion(c *echo.Context) error {
	if s.model == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", ErrNotConfigured.Error(), "", "")
	}
	req, err := decodeJSON[CompletionRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	length, err := s.targetLength(req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	res, err := s.model.Prompt(c.Request().Context(), req.Prompt, length)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return writeError(c, http.StatusServiceUnavailable, "server_error", err.Error(), "", "")
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}

	resp := CompletionResponse{
		ID:      newCompletionID(),
		Object:  "text_completion",
		Created: s.clock().Unix(),
		Model:   res.Source,
		Prompt:  req.Prompt,
		Choices: []CompletionChoice{{
			Index:        0,
			Text:         res.Text,
			FinishReason: res.FinishReason,
		}},
		Usage: CompletionUsage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.GeneratedTokens,
			TotalTokens:      res.PromptTokens + res.GeneratedTokens,
		},
	}
	if req.Store == nil || *req.Store {
		s.store.Save(resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// targetLength converts the request's length fields into a total token
// budget no larger than MaxLength. Zero means the session default.
func (s *Server) targetLength(req CompletionRequest) (int, error) {
	limit := s.cfg.MaxLength
	switch {
	case req.Length != nil:
		if *req.Length < 0 {
			return 0, newInvalidRequest("length must not be negative")
		}
		if *req.Length > limit {
			return 0, newInvalidRequest(fmt.Sprintf("length must not exceed %d", limit))
		}
		return *req.Length, nil
	case req.MaxTokens != nil:
		if *req.MaxTokens < 0 {
			return 0, newInvalidRequest("max_tokens must not be negative")
		}
		promptTokens := tokenizer.Count(req.Prompt)
		if *req.MaxTokens > limit-promptTokens {
			return 0, newInvalidRequest(fmt.Sprintf("prompt plus max_tokens must not exceed %d tokens", limit))
		}
		return promptTokens + *req.MaxTokens, nil
	default:
		return 0, nil
	}
}

func (s *Server) handleGetCompletion(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "completion not found")
	}
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "completion not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteCompletion(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "completion not found")
	}
	return c.JSON(http.StatusOK, DeleteCompletionResp{
		ID:      id,
		Object:  "text_completion",
		Deleted: true,
	})
}

func (s *Server) handleTokenize(c *echo.Context) error {
	req, err := decodeJSON[TokenizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	toks := tokenizer.Tokenize(req.Text)
	return c.JSON(http.StatusOK, TokenizeResponse{
		Object: "tokens",
		Tokens: toks,
		Count:  len(toks),
	})
}
