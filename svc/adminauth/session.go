package adminauth

import (
	"context"
	"time"
)

const keyPrefix = "session:"

// Session is an authenticated admin session as stored in the key-value store.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Key returns the store key of the session with token.
func Key(token string) string { return keyPrefix + token }

type sessionContextKey struct{}

// WithSession stores s in ctx for handlers behind Middleware.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the session Middleware attached to ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	return s, ok && s != nil
}
