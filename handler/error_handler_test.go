package handler_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/newsletter/handler"
	"github.com/dmitrymomot/newsletter/pkg/binder"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    int
		message string
		level   slog.Level
	}{
		{
			name:    "http error",
			err:     handler.NewHTTPError(http.StatusConflict, "already there"),
			code:    http.StatusConflict,
			message: "already there",
			level:   slog.LevelWarn,
		},
		{
			name:    "wrapped http error",
			err:     fmt.Errorf("outer: %w", handler.ErrServiceUnavailable.Wrap(errors.New("redis down"))),
			code:    http.StatusServiceUnavailable,
			message: "Service temporarily unavailable",
			level:   slog.LevelError,
		},
		{
			name:    "unsupported media type",
			err:     fmt.Errorf("%w: text/plain", binder.ErrUnsupportedMediaType),
			code:    http.StatusUnsupportedMediaType,
			message: "Unsupported content type",
			level:   slog.LevelWarn,
		},
		{
			name:    "invalid form",
			err:     binder.ErrInvalidForm,
			code:    http.StatusBadRequest,
			message: "Invalid request",
			level:   slog.LevelWarn,
		},
		{
			name:    "unknown error is hidden",
			err:     errors.New("pq: connection refused"),
			code:    http.StatusInternalServerError,
			message: "Internal server error",
			level:   slog.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := handler.ClassifyError(tt.err)
			assert.Equal(t, tt.code, info.StatusCode)
			assert.Equal(t, tt.message, info.Message)
			assert.Equal(t, tt.level, info.LogLevel)
		})
	}
}

func TestNewErrorHandler_LogsAndRenders(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/subscribe", nil)
	handler.NewErrorHandler(log)(handler.NewContext(rec, r), errors.New("secret detail"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, rec.Body.String(), "secret detail")
	assert.Contains(t, buf.String(), "secret detail")
	assert.Contains(t, buf.String(), `"path":"/subscribe"`)
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	err := handler.NewHTTPError(http.StatusNotFound, "").Wrap(cause)

	assert.Equal(t, "Not Found: cause", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Not found", handler.ErrNotFound.Message)
}
