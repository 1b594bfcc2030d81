package adminauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/logger"
	"github.com/dmitrymomot/newsletter/pkg/token"
)

// tokenBytes is the entropy of a session token; it is hex encoded.
const tokenBytes = 32

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTokenGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// Service authenticates the admin and manages sessions.
type Service struct {
	store    kv.Store
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
	newToken func() (string, error)
}

func NewService(store kv.Store, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cfg:      cfg,
		log:      slog.Default(),
		now:      time.Now,
		newToken: func() (string, error) { return token.Random(tokenBytes) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("adminauth"))
	if !cfg.configured() {
		s.log.Warn("no admin password configured, admin login is disabled")
	}
	return s
}

// TrustProxy reports whether client IPs may be read from proxy headers.
func (s *Service) TrustProxy() bool { return s.cfg.TrustProxy }

type LoginInput struct {
	Password  string
	IP        string
	UserAgent string
}

// Login checks password and opens a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if strings.TrimSpace(in.Password) == "" {
		return nil, ErrPasswordRequired
	}
	if !s.cfg.configured() {
		return nil, ErrNotConfigured
	}
	if s.store == nil {
		return nil, kv.ErrUnavailable
	}
	if !s.checkPassword(in.Password) {
		s.log.WarnContext(ctx, "admin login rejected", slog.String("ip", in.IP))
		return nil, ErrInvalidPassword
	}

	tok, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	sess := &Session{
		Token:     tok,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ttl()),
		IP:        in.IP,
		UserAgent: in.UserAgent,
	}
	if err := kv.PutJSON(ctx, s.store, Key(tok), sess, s.cfg.ttl()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.InfoContext(ctx, "admin logged in", slog.String("ip", in.IP))
	return sess, nil
}

// Logout deletes the session. An empty or unknown token is not an error.
func (s *Service) Logout(ctx context.Context, tok string) error {
	if tok == "" || s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, Key(tok)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Session resolves tok. Expired sessions are deleted and reported as
// ErrSessionExpired.
func (s *Service) Session(ctx context.Context, tok string) (*Session, error) {
	if tok == "" {
		return nil, ErrSessionNotFound
	}
	if s.store == nil {
		return nil, kv.ErrUnavailable
	}

	var sess Session
	err := kv.GetJSON(ctx, s.store, Key(tok), &sess)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.expired(s.now()) {
		if err := s.store.Delete(ctx, Key(tok)); err != nil {
			s.log.WarnContext(ctx, "failed to delete expired session", logger.Error(err))
		}
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

func (s *Service) checkPassword(password string) bool {
	if s.cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.cfg.Password), []byte(password)) == 1
}
