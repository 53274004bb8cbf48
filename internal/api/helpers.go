package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, newInvalidRequest("request body is empty")
		}
		return out, newInvalidRequest(fmt.Sprintf("invalid JSON: %v", err))
	}
	return out, nil
}

func newCompletionID() string {
	return "cmpl-" + uuid.NewString()
}
