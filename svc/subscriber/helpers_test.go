package subscriber_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

type sentMail struct {
	To    string
	Token string
}

type fakeMailer struct {
	mu            sync.Mutex
	failConfirm   bool
	failWelcome   bool
	confirmations []sentMail
	welcomes      []sentMail
}

func (m *fakeMailer) SendConfirmationEmail(_ context.Context, to, token string) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failConfirm {
		return email.Result{Provider: "fake", Error: "rejected"}
	}
	m.confirmations = append(m.confirmations, sentMail{To: to, Token: token})
	return email.Result{Success: true, Provider: "fake", MessageID: "m-1"}
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, to, token string) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWelcome {
		return email.Result{Provider: "fake", Error: "rejected"}
	}
	m.welcomes = append(m.welcomes, sentMail{To: to, Token: token})
	return email.Result{Success: true, Provider: "fake", MessageID: "m-2"}
}

func (m *fakeMailer) lastConfirmation(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.confirmations)
	return m.confirmations[len(m.confirmations)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	kv     *kv.Memory
	mailer *fakeMailer
	clock  *clock
	svc    *subscriber.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		kv:     kv.NewMemory(),
		mailer: &fakeMailer{},
		clock:  &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	var (
		mu sync.Mutex
		n  int
	)
	tokens := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("tok-%d", n)
	}

	f.svc = subscriber.NewService(f.kv, f.mailer,
		subscriber.WithClock(f.clock.Now),
		subscriber.WithTokenGenerator(tokens),
		subscriber.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return f
}

func (f *fixture) get(t *testing.T, addr string) *subscriber.Subscriber {
	t.Helper()
	sub, err := f.svc.Store().Get(context.Background(), addr)
	require.NoError(t, err)
	return sub
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.svc.Count(context.Background())
	require.NoError(t, err)
	return n
}

func requireKind(t *testing.T, err error, kind subscriber.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	e, ok := subscriber.AsError(err)
	require.True(t, ok, "expected *subscriber.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, e.Error())
	require.Equal(t, message, e.Message)
}
