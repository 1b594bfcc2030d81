package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/newsletter/pkg/logger"
)

// Kinds of outgoing email, reported to the send observer.
const (
	KindConfirmation = "confirmation"
	KindWelcome      = "welcome"
	KindNewsletter   = "newsletter"
)

// SendObserver is called after every send attempt.
type SendObserver func(kind string, result Result, took time.Duration)

// Service builds links from the site configuration and delegates delivery
// to the configured Provider.
type Service struct {
	provider Provider
	siteURL  string
	siteName string
	log      *slog.Logger
	observe  SendObserver
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	log          *slog.Logger
	provider     Provider
	providerOpts []ProviderOption
	observe      SendObserver
}

// WithLogger sets the logger for send outcomes. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithProvider skips the registry and uses p directly.
func WithProvider(p Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = p
	}
}

// WithProviderOptions passes options to the provider built from Config.
func WithProviderOptions(opts ...ProviderOption) ServiceOption {
	return func(o *serviceOptions) {
		o.providerOpts = append(o.providerOpts, opts...)
	}
}

// WithSendObserver registers fn to be called after every send, e.g. for metrics.
func WithSendObserver(fn SendObserver) ServiceOption {
	return func(o *serviceOptions) {
		o.observe = fn
	}
}

// NewService resolves cfg.Provider through the registry unless WithProvider is given.
func NewService(cfg Config, opts ...ServiceOption) (*Service, error) {
	o := serviceOptions{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	p := o.provider
	if p == nil {
		var err error
		p, err = NewProvider(cfg.Provider, cfg, o.providerOpts...)
		if err != nil {
			return nil, err
		}
	}

	if _, err := url.Parse(cfg.SiteURL); err != nil {
		return nil, fmt.Errorf("%w: SITE_URL: %v", ErrInvalidConfig, err)
	}

	return &Service{
		provider: p,
		siteURL:  strings.TrimSuffix(cfg.SiteURL, "/"),
		siteName: cfg.SiteName,
		log:      o.log.With(logger.Component("email"), logger.Provider(p.Name())),
		observe:  o.observe,
	}, nil
}

// ProviderName returns the name of the selected provider.
func (s *Service) ProviderName() string { return s.provider.Name() }

// SupportsNewsletter reports whether the provider can deliver broadcasts.
func (s *Service) SupportsNewsletter() bool {
	_, ok := s.provider.(NewsletterSender)
	return ok
}

// ConfirmationURL is the double opt-in link for token.
func (s *Service) ConfirmationURL(token string) string {
	return s.siteURL + "/confirm?token=" + url.QueryEscape(token)
}

// UnsubscribeURL is the unsubscribe link for token, or "" for an empty token.
func (s *Service) UnsubscribeURL(token string) string {
	if token == "" {
		return ""
	}
	return s.siteURL + "/unsubscribe?token=" + url.QueryEscape(token)
}

// SendConfirmationEmail sends the double opt-in link for token to to.
func (s *Service) SendConfirmationEmail(ctx context.Context, to, token string) Result {
	start := time.Now()
	r := s.provider.SendConfirmationEmail(ctx, ConfirmationParams{
		To:              to,
		ConfirmationURL: s.ConfirmationURL(token),
		SiteName:        s.siteName,
	})
	s.record(ctx, KindConfirmation, to, r, time.Since(start))
	return r
}

// SendWelcomeEmail sends the welcome email with the unsubscribe link.
func (s *Service) SendWelcomeEmail(ctx context.Context, to, unsubscribeToken string) Result {
	start := time.Now()
	r := s.provider.SendWelcomeEmail(ctx, WelcomeParams{
		To:             to,
		SiteName:       s.siteName,
		UnsubscribeURL: s.UnsubscribeURL(unsubscribeToken),
	})
	s.record(ctx, KindWelcome, to, r, time.Since(start))
	return r
}

// SendNewsletter delivers one broadcast copy. Providers without the
// capability yield a failed Result rather than an error.
func (s *Service) SendNewsletter(ctx context.Context, to, subject, content, unsubscribeToken string) Result {
	start := time.Now()
	sender, ok := s.provider.(NewsletterSender)
	if !ok {
		r := failed(s.provider.Name(), fmt.Errorf("%w: %s", ErrNewsletterNotSupported, s.provider.Name()))
		s.record(ctx, KindNewsletter, to, r, time.Since(start))
		return r
	}

	r := sender.SendNewsletter(ctx, NewsletterParams{
		To:             to,
		Subject:        subject,
		Content:        content,
		SiteName:       s.siteName,
		UnsubscribeURL: s.UnsubscribeURL(unsubscribeToken),
	})
	s.record(ctx, KindNewsletter, to, r, time.Since(start))
	return r
}

func (s *Service) record(ctx context.Context, kind, to string, r Result, took time.Duration) {
	if s.observe != nil {
		s.observe(kind, r, took)
	}
	if r.Success {
		s.log.InfoContext(ctx, "email sent",
			logger.Event(kind), logger.Email(to), logger.MessageID(r.MessageID), logger.Duration(took))
		return
	}
	s.log.ErrorContext(ctx, "email send failed",
		logger.Event(kind), logger.Email(to), slog.String("reason", r.Error), logger.Duration(took))
}
