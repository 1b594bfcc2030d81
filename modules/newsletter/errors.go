package newsletter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/newsletter/handler"
	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/logger"
	"github.com/dmitrymomot/newsletter/pkg/requestid"
	"github.com/dmitrymomot/newsletter/svc/adminauth"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

var statusByKind = map[subscriber.Kind]int{
	subscriber.KindInvalid:     http.StatusBadRequest,
	subscriber.KindNotFound:    http.StatusNotFound,
	subscriber.KindConflict:    http.StatusConflict,
	subscriber.KindForbidden:   http.StatusForbidden,
	subscriber.KindGone:        http.StatusGone,
	subscriber.KindUnavailable: http.StatusServiceUnavailable,
}

// httpError converts a service error into an HTTPError. fallback is the
// message for errors that carry none of their own.
func httpError(err error, fallback string) handler.HTTPError {
	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if e, ok := subscriber.AsError(err); ok {
		code, known := statusByKind[e.Kind]
		if !known {
			code = http.StatusInternalServerError
		}
		msg := e.Message
		if msg == "" {
			msg = fallback
		}
		return handler.NewHTTPError(code, msg).Wrap(err)
	}
	if errors.Is(err, kv.ErrUnavailable) {
		return handler.ErrServiceUnavailable.Wrap(err)
	}
	return handler.NewHTTPError(http.StatusInternalServerError, fallback).Wrap(err)
}

// authError maps adminauth failures for the login endpoint.
func authError(err error) handler.HTTPError {
	switch {
	case errors.Is(err, adminauth.ErrPasswordRequired):
		return handler.NewHTTPError(http.StatusBadRequest, adminauth.MsgPasswordRequired).Wrap(err)
	case errors.Is(err, adminauth.ErrInvalidPassword):
		return handler.NewHTTPError(http.StatusUnauthorized, adminauth.MsgInvalidPassword).Wrap(err)
	case errors.Is(err, adminauth.ErrNotConfigured), errors.Is(err, kv.ErrUnavailable):
		return handler.NewHTTPError(http.StatusServiceUnavailable, adminauth.MsgUnavailable).Wrap(err)
	default:
		return handler.NewHTTPError(http.StatusInternalServerError, adminauth.MsgLoginFailed).Wrap(err)
	}
}

// fail logs err and renders it as an error envelope.
func (m *module) fail(ctx handler.Context, err handler.HTTPError) handler.Response {
	r := ctx.Request()
	info := handler.ClassifyError(err)
	m.log.LogAttrs(ctx, info.LogLevel, "request failed",
		logger.RequestID(requestid.FromContext(ctx)),
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	return handler.Fail(info.StatusCode, info.Message)
}
