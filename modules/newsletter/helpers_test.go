package newsletter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/modules/newsletter"
	"github.com/dmitrymomot/newsletter/pkg/async"
	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/metrics"
	"github.com/dmitrymomot/newsletter/svc/adminauth"
	"github.com/dmitrymomot/newsletter/svc/broadcast"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

const adminPassword = "correct horse"

type fakeMailer struct {
	mu          sync.Mutex
	confirms    []string
	welcomes    []string
	newsletters []string
}

func (m *fakeMailer) SendConfirmationEmail(_ context.Context, to, token string) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirms = append(m.confirms, to+" "+token)
	return email.Result{Success: true, Provider: "fake"}
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, to, _ string) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, to)
	return email.Result{Success: true, Provider: "fake"}
}

func (m *fakeMailer) SendNewsletter(_ context.Context, to, subject, _, _ string) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newsletters = append(m.newsletters, to+" "+subject)
	return email.Result{Success: true, Provider: "fake"}
}

func (m *fakeMailer) sentNewsletters() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.newsletters...)
}

type env struct {
	handler http.Handler
	store   kv.Store
	mailer  *fakeMailer
	group   *async.Group
	subs    *subscriber.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithStore(t, kv.NewMemory())
}

func newEnvWithStore(t *testing.T, store kv.Store, opts ...func(*newsletter.Deps)) *env {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &fakeMailer{}
	group := async.NewGroup()
	m := metrics.New()

	var (
		mu sync.Mutex
		n  int
	)
	subs := subscriber.NewService(store, mailer,
		subscriber.WithLogger(log),
		subscriber.WithMetrics(m),
		subscriber.WithTokenGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("tok-%d", n)
		}),
	)

	deps := newsletter.Deps{
		Subscribers: subs,
		Broadcasts:  broadcast.NewCoordinator(subs, mailer, group, broadcast.WithStagger(0), broadcast.WithLogger(log)),
		Auth:        adminauth.NewService(store, adminauth.Config{Password: adminPassword}, adminauth.WithLogger(log)),
		Metrics:     m,
		Logger:      log,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	r := newsletter.Router(newsletter.Config{AllowedOrigins: []string{"*"}}, deps)

	t.Cleanup(func() { _ = group.Shutdown(context.Background()) })
	return &env{handler: r, store: store, mailer: mailer, group: group, subs: subs}
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

func (e *env) serve(t *testing.T, req *http.Request, cookies ...*http.Cookie) response {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	res := response{Code: rec.Code, Header: rec.Header()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

func (e *env) get(t *testing.T, target string, cookies ...*http.Cookie) response {
	t.Helper()
	return e.serve(t, httptest.NewRequest(http.MethodGet, target, nil), cookies...)
}

func (e *env) form(t *testing.T, method, target string, values url.Values, cookies ...*http.Cookie) response {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.serve(t, req, cookies...)
}

func (e *env) sendJSON(t *testing.T, method, target string, body any, cookies ...*http.Cookie) response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return e.serve(t, req, cookies...)
}

func (e *env) upload(t *testing.T, target, field, filename, content string, cookies ...*http.Cookie) response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(t, req, cookies...)
}

// login authenticates as admin and returns the session cookie.
func (e *env) login(t *testing.T) *http.Cookie {
	t.Helper()
	res := e.form(t, http.MethodPost, "/auth", url.Values{"password": {adminPassword}})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	rec := &http.Response{Header: res.Header}
	for _, c := range rec.Cookies() {
		if c.Name == adminauth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// subscribeConfirmed adds an active subscriber through the public flow and
// returns its unsubscribe token.
func (e *env) subscribeConfirmed(t *testing.T, addr string) string {
	t.Helper()
	res := e.form(t, http.MethodPost, "/subscribe", url.Values{"email": {addr}})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	sub, err := e.subs.Store().Get(context.Background(), subscriber.NormalizeEmail(addr))
	require.NoError(t, err)
	res = e.get(t, "/confirm?token="+url.QueryEscape(sub.ConfirmationToken))
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	return sub.UnsubscribeToken
}

// failingStore behaves like an unreachable backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, kv.ErrUnavailable }
func (failingStore) Put(context.Context, string, []byte, time.Duration) error {
	return kv.ErrUnavailable
}
func (failingStore) Delete(context.Context, string) error { return kv.ErrUnavailable }
func (failingStore) List(context.Context, string) ([]string, error) {
	return nil, kv.ErrUnavailable
}
