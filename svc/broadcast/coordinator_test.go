package broadcast_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/pkg/async"
	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/metrics"
	"github.com/dmitrymomot/newsletter/svc/broadcast"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

type recipients struct {
	subs []*subscriber.Subscriber
	err  error
}

func (r recipients) Active(context.Context) ([]*subscriber.Subscriber, error) {
	return r.subs, r.err
}

type sent struct {
	To, Subject, Content, Unsubscribe string
}

type fakeSender struct {
	mu    sync.Mutex
	fail  map[string]bool
	block bool
	sent  []sent
}

func (s *fakeSender) SendNewsletter(ctx context.Context, to, subject, content, unsubscribeToken string) email.Result {
	if s.block {
		<-ctx.Done()
		return email.Result{Provider: "fake", Error: ctx.Err().Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[to] {
		return email.Result{Provider: "fake", Error: "mailbox full"}
	}
	s.sent = append(s.sent, sent{To: to, Subject: subject, Content: content, Unsubscribe: unsubscribeToken})
	return email.Result{Success: true, Provider: "fake", MessageID: "id-" + to}
}

func (s *fakeSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		out = append(out, m.To)
	}
	sort.Strings(out)
	return out
}

func active(addrs ...string) []*subscriber.Subscriber {
	subs := make([]*subscriber.Subscriber, 0, len(addrs))
	for _, a := range addrs {
		subs = append(subs, &subscriber.Subscriber{Email: a, Status: subscriber.StatusActive, UnsubscribeToken: "u-" + a})
	}
	return subs
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestCoordinator_Broadcast(t *testing.T) {
	t.Parallel()

	group := async.NewGroup()
	sender := &fakeSender{fail: map[string]bool{"c@example.com": true}}
	m := metrics.New()

	var (
		mu      sync.Mutex
		reports []broadcast.Report
	)
	c := broadcast.NewCoordinator(
		recipients{subs: active("a@example.com", "b@example.com", "c@example.com")},
		sender, group,
		broadcast.WithStagger(0),
		broadcast.WithLogger(quiet()),
		broadcast.WithMetrics(m),
		broadcast.WithReportHook(func(r broadcast.Report) {
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		}),
	)

	started, err := c.Broadcast(context.Background(), broadcast.Newsletter{Subject: " Hello ", Content: "<p>Hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, 3, started.Total)

	group.Wait()

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.recipients())
	for _, m := range sender.sent {
		assert.Equal(t, "Hello", m.Subject)
		assert.Equal(t, "<p>Hi</p>", m.Content)
		assert.Equal(t, "u-"+m.To, m.Unsubscribe)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1)
	assert.Equal(t, broadcast.Report{Total: 3, Sent: 2, Failed: 1}, reports[0])

	n, err := testutil.GatherAndCount(m.Registry(), "newsletter_broadcast_recipients_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCoordinator_BroadcastMarkdown(t *testing.T) {
	t.Parallel()

	group := async.NewGroup()
	sender := &fakeSender{}
	c := broadcast.NewCoordinator(recipients{subs: active("a@example.com")}, sender, group,
		broadcast.WithStagger(0), broadcast.WithLogger(quiet()))

	_, err := c.Broadcast(context.Background(), broadcast.Newsletter{
		Subject: "News",
		Content: "# Title\n\nSome **bold** text",
		Format:  broadcast.FormatMarkdown,
	})
	require.NoError(t, err)
	group.Wait()

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Content, "<h1>Title</h1>")
	assert.Contains(t, sender.sent[0].Content, "<strong>bold</strong>")
}

func TestCoordinator_BroadcastRejects(t *testing.T) {
	t.Parallel()

	unavailable := &subscriber.Error{Kind: subscriber.KindUnavailable, Message: subscriber.MsgServiceUnavailable}

	tests := []struct {
		name    string
		list    recipients
		in      broadcast.Newsletter
		kind    subscriber.Kind
		message string
	}{
		{"missing subject", recipients{subs: active("a@example.com")}, broadcast.Newsletter{Subject: "  ", Content: "x"}, subscriber.KindInvalid, broadcast.MsgFieldsRequired},
		{"missing content", recipients{subs: active("a@example.com")}, broadcast.Newsletter{Subject: "s"}, subscriber.KindInvalid, broadcast.MsgFieldsRequired},
		{"no recipients", recipients{}, broadcast.Newsletter{Subject: "s", Content: "c"}, subscriber.KindInvalid, broadcast.MsgNoActiveRecipients},
		{"store down", recipients{err: unavailable}, broadcast.Newsletter{Subject: "s", Content: "c"}, subscriber.KindUnavailable, broadcast.MsgServiceUnavailable},
		{"store error", recipients{err: errors.New("boom")}, broadcast.Newsletter{Subject: "s", Content: "c"}, subscriber.KindInternal, broadcast.MsgFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{}
			group := async.NewGroup()
			c := broadcast.NewCoordinator(tt.list, sender, group, broadcast.WithLogger(quiet()))

			_, err := c.Broadcast(context.Background(), tt.in)
			e, ok := subscriber.AsError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.message, e.Message)

			group.Wait()
			assert.Empty(t, sender.recipients())
		})
	}
}

func TestCoordinator_BroadcastAfterShutdown(t *testing.T) {
	t.Parallel()

	group := async.NewGroup()
	require.NoError(t, group.Shutdown(context.Background()))

	c := broadcast.NewCoordinator(recipients{subs: active("a@example.com")}, &fakeSender{}, group, broadcast.WithLogger(quiet()))
	_, err := c.Broadcast(context.Background(), broadcast.Newsletter{Subject: "s", Content: "c"})
	e, ok := subscriber.AsError(err)
	require.True(t, ok)
	assert.Equal(t, subscriber.KindUnavailable, e.Kind)
	assert.ErrorIs(t, err, async.ErrGroupClosed)
}

func TestCoordinator_SendTimeout(t *testing.T) {
	t.Parallel()

	group := async.NewGroup()
	done := make(chan broadcast.Report, 1)
	c := broadcast.NewCoordinator(recipients{subs: active("a@example.com", "b@example.com")}, &fakeSender{block: true}, group,
		broadcast.WithStagger(0),
		broadcast.WithSendTimeout(20*time.Millisecond),
		broadcast.WithLogger(quiet()),
		broadcast.WithReportHook(func(r broadcast.Report) { done <- r }),
	)

	_, err := c.Broadcast(context.Background(), broadcast.Newsletter{Subject: "s", Content: "c"})
	require.NoError(t, err)

	select {
	case r := <-done:
		assert.Equal(t, broadcast.Report{Total: 2, Failed: 2}, r)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not finish")
	}
}

func TestCoordinator_OutlivesRequestContext(t *testing.T) {
	t.Parallel()

	group := async.NewGroup()
	sender := &fakeSender{}
	c := broadcast.NewCoordinator(recipients{subs: active("a@example.com", "b@example.com", "c@example.com")}, sender, group,
		broadcast.WithStagger(10*time.Millisecond), broadcast.WithLogger(quiet()))

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	_, err := c.Broadcast(ctx, broadcast.Newsletter{Subject: "s", Content: "c"})
	require.NoError(t, err)
	cancel()

	group.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "sends are staggered")
	assert.Len(t, sender.recipients(), 3)
}
