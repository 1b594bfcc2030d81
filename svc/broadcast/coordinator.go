package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/newsletter/pkg/async"
	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/logger"
	"github.com/dmitrymomot/newsletter/pkg/metrics"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

const (
	DefaultStagger     = 50 * time.Millisecond
	DefaultSendTimeout = 30 * time.Second
)

// Recipients lists the addresses a broadcast goes to.
type Recipients interface {
	Active(ctx context.Context) ([]*subscriber.Subscriber, error)
}

// Sender delivers one newsletter copy. *email.Service implements it.
type Sender interface {
	SendNewsletter(ctx context.Context, to, subject, content, unsubscribeToken string) email.Result
}

// Runner runs work that outlives the request. *async.Group implements it.
type Runner interface {
	Go(fn func(ctx context.Context)) error
}

type Option func(*Coordinator)

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithStagger sets the delay added per recipient index. Zero sends at once.
func WithStagger(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.stagger = d
		}
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithReportHook registers fn to receive the report of every finished batch.
func WithReportHook(fn func(Report)) Option {
	return func(c *Coordinator) { c.onReport = fn }
}

// Coordinator starts newsletter broadcasts.
type Coordinator struct {
	recipients  Recipients
	sender      Sender
	runner      Runner
	log         *slog.Logger
	metrics     *metrics.Metrics
	stagger     time.Duration
	sendTimeout time.Duration
	onReport    func(Report)
}

func NewCoordinator(recipients Recipients, sender Sender, runner Runner, opts ...Option) *Coordinator {
	c := &Coordinator{
		recipients:  recipients,
		sender:      sender,
		runner:      runner,
		log:         slog.Default(),
		stagger:     DefaultStagger,
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("broadcast"))
	return c
}

type delivery struct {
	to      *subscriber.Subscriber
	subject string
	body    string
	delay   time.Duration
}

// Broadcast validates n, snapshots the active subscribers and schedules one
// send per recipient. It returns as soon as the batch is scheduled.
func (c *Coordinator) Broadcast(ctx context.Context, n Newsletter) (Started, error) {
	n.Subject = strings.TrimSpace(n.Subject)
	if n.Subject == "" || strings.TrimSpace(n.Content) == "" {
		return Started{}, &subscriber.Error{Kind: subscriber.KindInvalid, Message: MsgFieldsRequired}
	}

	body, err := RenderContent(n)
	if err != nil {
		return Started{}, &subscriber.Error{Kind: subscriber.KindInternal, Message: MsgFailed, Err: err}
	}

	recipients, err := c.recipients.Active(ctx)
	if err != nil {
		if e, ok := subscriber.AsError(err); ok && e.Kind == subscriber.KindUnavailable {
			return Started{}, &subscriber.Error{Kind: subscriber.KindUnavailable, Message: MsgServiceUnavailable, Err: err}
		}
		return Started{}, &subscriber.Error{Kind: subscriber.KindInternal, Message: MsgFailed, Err: err}
	}
	if len(recipients) == 0 {
		return Started{}, &subscriber.Error{Kind: subscriber.KindInvalid, Message: MsgNoActiveRecipients}
	}

	jobs := make([]delivery, len(recipients))
	for i, sub := range recipients {
		jobs[i] = delivery{to: sub, subject: n.Subject, body: body, delay: time.Duration(i) * c.stagger}
	}

	err = c.runner.Go(func(ctx context.Context) { c.run(ctx, jobs) })
	if errors.Is(err, async.ErrGroupClosed) {
		return Started{}, &subscriber.Error{Kind: subscriber.KindUnavailable, Message: MsgServiceUnavailable, Err: err}
	}
	if err != nil {
		return Started{}, &subscriber.Error{Kind: subscriber.KindInternal, Message: MsgFailed, Err: err}
	}

	c.log.InfoContext(ctx, "newsletter broadcast started",
		logger.Count("recipients", len(jobs)), slog.String("subject", n.Subject))
	return Started{Total: len(jobs)}, nil
}

func (c *Coordinator) run(ctx context.Context, jobs []delivery) {
	start := time.Now()
	futures := make([]*async.Future[email.Result], len(jobs))
	for i, job := range jobs {
		futures[i] = async.Async(ctx, job, c.deliver)
	}

	report := Report{Total: len(jobs)}
	for _, out := range async.AwaitAll(futures...) {
		if out.Err != nil {
			report.Failed++
			continue
		}
		report.Sent++
	}

	c.metrics.BroadcastResult(report.Sent, report.Failed)
	c.log.InfoContext(ctx, "newsletter broadcast finished",
		logger.Count("total", report.Total),
		logger.Count("sent", report.Sent),
		logger.Count("failed", report.Failed),
		logger.Duration(time.Since(start)),
	)
	if c.onReport != nil {
		c.onReport(report)
	}
}

func (c *Coordinator) deliver(ctx context.Context, job delivery) (email.Result, error) {
	if job.delay > 0 {
		timer := time.NewTimer(job.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return email.Result{}, ctx.Err()
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	r := c.sender.SendNewsletter(sendCtx, job.to.Email, job.subject, job.body, job.to.UnsubscribeToken)
	return r, r.Err()
}
