package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/logger"
	"github.com/dmitrymomot/newsletter/pkg/metrics"
	"github.com/dmitrymomot/newsletter/pkg/token"
)

// Mailer sends the lifecycle emails. *email.Service satisfies it.
type Mailer interface {
	SendConfirmationEmail(ctx context.Context, to, token string) email.Result
	SendWelcomeEmail(ctx context.Context, to, unsubscribeToken string) email.Result
}

// Service runs the subscriber lifecycle on top of Store. Every operation
// consults the lifecycle table before writing.
type Service struct {
	store    *Store
	mailer   Mailer
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newToken func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records lifecycle events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenGenerator replaces token.Generate, mainly for tests.
func WithTokenGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// NewService builds the lifecycle service on top of store. mailer may be
// nil for callers that never send email, such as bulk import.
func NewService(store kv.Store, mailer Mailer, opts ...Option) *Service {
	s := &Service{
		store:    NewStore(store),
		mailer:   mailer,
		log:      slog.Default(),
		now:      time.Now,
		newToken: token.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("subscriber"))
	return s
}

// Store exposes the underlying accessor.
func (s *Service) Store() *Store { return s.store }

// SubscribeInput is a subscription request with its provenance.
type SubscribeInput struct {
	Email     string
	IP        string
	UserAgent string
}

type SubscribeResult struct {
	Email   string
	Resent  bool
	Message string
}

// Subscribe starts double opt-in for a new address, or resends the pending
// confirmation for one that is still waiting.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (res SubscribeResult, err error) {
	defer func() { s.observe(EventSubscribe, err) }()

	addr := NormalizeEmail(in.Email)
	if !ValidEmail(addr) {
		return res, newError(KindInvalid, MsgInvalidEmail, ErrInvalidEmail)
	}

	existing, err := s.lookup(ctx, addr)
	if err != nil {
		return res, storeError(err, MsgSubscriptionFailed)
	}

	now := s.now()
	next, err := transition(ctx, existing, EventSubscribe, now)
	if err != nil {
		return res, err
	}

	switch {
	case existing == nil:
		return s.createPending(ctx, addr, in, now)

	case next == StateAbsent:
		if err := s.store.Delete(ctx, addr); err != nil {
			return res, storeError(err, MsgSubscriptionFailed)
		}
		s.log.InfoContext(ctx, "expired pending subscription removed", logger.Email(addr))
		return res, newError(KindGone, MsgSubscribeExpired, ErrTokenExpired)

	default:
		if r := s.mailer.SendConfirmationEmail(ctx, addr, existing.ConfirmationToken); !r.Success {
			return res, newError(KindInternal, MsgConfirmationFailed, errors.Join(ErrEmailNotSent, r.Err()))
		}
		return SubscribeResult{Email: addr, Resent: true, Message: MsgConfirmationResent}, nil
	}
}

func (s *Service) createPending(ctx context.Context, addr string, in SubscribeInput, now time.Time) (SubscribeResult, error) {
	sub := &Subscriber{
		Email:             addr,
		SubscribedAt:      now,
		Status:            StatusPending,
		ConfirmationToken: s.newToken(),
		TokenExpiresAt:    timePtr(token.Expiry(now)),
		UnsubscribeToken:  s.newToken(),
		UserAgent:         in.UserAgent,
		IP:                in.IP,
		Source:            SourceForm,
	}
	if err := s.store.Put(ctx, sub); err != nil {
		return SubscribeResult{}, storeError(err, MsgSubscriptionFailed)
	}

	if r := s.mailer.SendConfirmationEmail(ctx, addr, sub.ConfirmationToken); !r.Success {
		// No pending record may outlive a confirmation email that never left.
		if err := s.store.Delete(ctx, addr); err != nil {
			s.log.ErrorContext(ctx, "failed to roll back pending subscriber",
				logger.Email(addr), logger.Error(err))
		}
		return SubscribeResult{}, newError(KindInternal, MsgConfirmationFailed, errors.Join(ErrEmailNotSent, r.Err()))
	}

	s.log.InfoContext(ctx, "subscription pending confirmation", logger.Email(addr))
	return SubscribeResult{Email: addr, Message: MsgConfirmationSent}, nil
}

type ConfirmResult struct {
	Email            string
	AlreadyConfirmed bool
	Message          string
}

// Confirm activates the pending subscriber holding tok.
func (s *Service) Confirm(ctx context.Context, tok string) (res ConfirmResult, err error) {
	defer func() { s.observe(EventConfirm, err) }()

	if tok == "" {
		return res, newError(KindInvalid, MsgTokenRequired, nil)
	}

	sub, err := s.findByConfirmationToken(ctx, tok)
	if err != nil {
		return res, storeError(err, MsgConfirmFailed)
	}

	now := s.now()
	from := stateOf(sub)
	next, err := transition(ctx, sub, EventConfirm, now)
	if err != nil {
		return res, err
	}

	switch {
	case from == StateActive:
		return ConfirmResult{Email: sub.Email, AlreadyConfirmed: true, Message: MsgAlreadyConfirmed}, nil

	case next == StateAbsent:
		if err := s.store.Delete(ctx, sub.Email); err != nil {
			return res, storeError(err, MsgConfirmFailed)
		}
		return res, newError(KindInvalid, MsgConfirmationExpired, ErrTokenExpired)
	}

	sub.Status = StatusActive
	sub.ConfirmedAt = timePtr(now)
	sub.ConfirmationToken = ""
	sub.TokenExpiresAt = nil
	if sub.UnsubscribeToken == "" {
		sub.UnsubscribeToken = s.newToken()
	}
	if err := s.store.Put(ctx, sub); err != nil {
		return res, storeError(err, MsgConfirmFailed)
	}

	if _, err := s.store.IncrementCount(ctx, 1); err != nil {
		s.log.ErrorContext(ctx, "failed to update subscriber count", logger.Error(err))
	}
	if err := s.store.MarkConfirmed(ctx, tok, sub.Email); err != nil {
		s.log.WarnContext(ctx, "failed to record used confirmation token", logger.Error(err))
	}

	// Welcome email is best effort: the confirmation already happened.
	if r := s.mailer.SendWelcomeEmail(ctx, sub.Email, sub.UnsubscribeToken); !r.Success {
		s.log.WarnContext(ctx, "welcome email not delivered",
			logger.Email(sub.Email), logger.Provider(r.Provider), logger.Error(r.Err()))
	}

	s.log.InfoContext(ctx, "subscription confirmed", logger.Email(sub.Email))
	return ConfirmResult{Email: sub.Email, Message: MsgConfirmed}, nil
}

type ResendResult struct {
	Email   string
	Message string
}

// ResendConfirmation re-sends the existing confirmation token to a pending subscriber.
func (s *Service) ResendConfirmation(ctx context.Context, address string) (res ResendResult, err error) {
	defer func() { s.observe(EventResend, err) }()

	addr := NormalizeEmail(address)
	if addr == "" {
		return res, newError(KindInvalid, MsgEmailRequired, ErrInvalidEmail)
	}
	if !ValidEmail(addr) {
		return res, newError(KindInvalid, MsgInvalidEmail, ErrInvalidEmail)
	}

	sub, err := s.lookup(ctx, addr)
	if err != nil {
		return res, storeError(err, MsgResendFailed)
	}

	next, err := transition(ctx, sub, EventResend, s.now())
	if err != nil {
		return res, err
	}
	if next == StateAbsent {
		if err := s.store.Delete(ctx, addr); err != nil {
			return res, storeError(err, MsgResendFailed)
		}
		return res, newError(KindInvalid, MsgResendExpired, ErrTokenExpired)
	}

	if r := s.mailer.SendConfirmationEmail(ctx, addr, sub.ConfirmationToken); !r.Success {
		return res, newError(KindInternal, MsgConfirmationFailed, errors.Join(ErrEmailNotSent, r.Err()))
	}
	return ResendResult{Email: addr, Message: MsgConfirmationResent}, nil
}

type UnsubscribeResult struct {
	Email               string
	AlreadyUnsubscribed bool
	Message             string
}

// Unsubscribe removes the subscriber holding the unsubscribe token tok.
func (s *Service) Unsubscribe(ctx context.Context, tok string) (res UnsubscribeResult, err error) {
	defer func() { s.observe(EventUnsubscribe, err) }()

	if tok == "" {
		return res, newError(KindInvalid, MsgUnsubscribeTokenRequired, nil)
	}

	sub, err := s.findByUnsubscribeToken(ctx, tok)
	if err != nil {
		return res, storeError(err, MsgUnsubscribeFailed)
	}

	from := stateOf(sub)
	if _, err := transition(ctx, sub, EventUnsubscribe, s.now()); err != nil {
		return res, err
	}
	if from == StateUnsubscribed {
		return UnsubscribeResult{Email: sub.Email, AlreadyUnsubscribed: true, Message: MsgAlreadyUnsubscribed}, nil
	}

	s.markUnsubscribed(sub)
	sub.UnsubscribeToken = ""
	if err := s.store.Put(ctx, sub); err != nil {
		return res, storeError(err, MsgUnsubscribeFailed)
	}
	if from == StateActive {
		s.decrementCount(ctx)
	}
	if err := s.store.MarkUnsubscribed(ctx, tok, sub.Email); err != nil {
		s.log.WarnContext(ctx, "failed to record used unsubscribe token", logger.Error(err))
	}

	s.log.InfoContext(ctx, "unsubscribed", logger.Email(sub.Email))
	return UnsubscribeResult{Email: sub.Email, Message: MsgUnsubscribed}, nil
}

// ForceUnsubscribe is the admin override: it marks the record unsubscribed
// and keeps it, so the address cannot silently re-enter the list.
func (s *Service) ForceUnsubscribe(ctx context.Context, address string) (err error) {
	defer func() { s.observe(EventForceUnsubscribe, err) }()

	addr := NormalizeEmail(address)
	if addr == "" {
		return newError(KindInvalid, MsgAdminEmailRequired, ErrInvalidEmail)
	}

	sub, err := s.lookup(ctx, addr)
	if err != nil {
		return storeError(err, MsgForceUnsubscribeErr)
	}

	from := stateOf(sub)
	if _, err := transition(ctx, sub, EventForceUnsubscribe, s.now()); err != nil {
		return err
	}
	if from == StateUnsubscribed {
		return nil
	}

	s.markUnsubscribed(sub)
	if err := s.store.Put(ctx, sub); err != nil {
		return storeError(err, MsgForceUnsubscribeErr)
	}
	if from == StateActive {
		s.decrementCount(ctx)
	}

	s.log.InfoContext(ctx, "subscriber force-unsubscribed", logger.Email(addr))
	return nil
}

func (s *Service) markUnsubscribed(sub *Subscriber) {
	sub.Status = StatusUnsubscribed
	sub.UnsubscribedAt = timePtr(s.now())
	sub.ConfirmationToken = ""
	sub.TokenExpiresAt = nil
}

func (s *Service) decrementCount(ctx context.Context) {
	if _, err := s.store.IncrementCount(ctx, -1); err != nil {
		s.log.ErrorContext(ctx, "failed to update subscriber count", logger.Error(err))
	}
}

// findByConfirmationToken returns (nil, nil) when tok matches nothing. A token
// spent on a subscriber that is still active resolves to that subscriber.
func (s *Service) findByConfirmationToken(ctx context.Context, tok string) (*Subscriber, error) {
	sub, err := s.store.FindByConfirmationToken(ctx, tok)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	addr, err := s.store.ConfirmedBy(ctx, tok)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub, err = s.lookup(ctx, addr)
	if err != nil || sub == nil || !sub.IsActive() {
		return nil, err
	}
	return sub, nil
}

// findByUnsubscribeToken returns (nil, nil) when tok matches nothing. A spent
// token resolves to its subscriber while that subscriber stays unsubscribed.
func (s *Service) findByUnsubscribeToken(ctx context.Context, tok string) (*Subscriber, error) {
	sub, err := s.store.FindByUnsubscribeToken(ctx, tok)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	addr, err := s.store.UnsubscribedBy(ctx, tok)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub, err = s.lookup(ctx, addr)
	if err != nil || sub == nil || !sub.IsUnsubscribed() {
		return nil, err
	}
	return sub, nil
}

// lookup returns (nil, nil) when no record exists.
func (s *Service) lookup(ctx context.Context, addr string) (*Subscriber, error) {
	sub, err := s.store.Get(ctx, addr)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

func (s *Service) observe(ev Event, err error) {
	outcome := "ok"
	if err != nil {
		outcome = KindInternal.String()
		if e, ok := AsError(err); ok {
			outcome = e.Kind.String()
		}
	}
	s.metrics.SubscriberEvent(string(ev), outcome)
}

// storeError maps storage failures: an unreachable backend is a 503, anything
// else is an internal error with the operation's generic message.
func storeError(err error, fallback string) *Error {
	if errors.Is(err, kv.ErrUnavailable) {
		return newError(KindUnavailable, MsgServiceUnavailable, err)
	}
	return newError(KindInternal, fallback, err)
}
