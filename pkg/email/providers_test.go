package email_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/httpretry"
)

var confirmParams = email.ConfirmationParams{
	To:              "reader@example.com",
	ConfirmationURL: "https://news.example.com/confirm?token=abc",
	SiteName:        "Weekly Go",
}

func noRetry(srv *httptest.Server) email.ProviderOption {
	return email.WithHTTPDoer(httpretry.New(srv.Client(), httpretry.WithMaxRetries(0)))
}

func TestSendGridProvider(t *testing.T) {
	t.Parallel()

	cfg := email.Config{SendGridAPIKey: "sg-key", FromEmail: "news@example.com"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v3/mail/send", r.URL.Path)
			assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body struct {
				Personalizations []struct {
					To      []struct{ Email string } `json:"to"`
					Subject string                   `json:"subject"`
				} `json:"personalizations"`
				From    struct{ Email string } `json:"from"`
				Content []struct {
					Type  string `json:"type"`
					Value string `json:"value"`
				} `json:"content"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "reader@example.com", body.Personalizations[0].To[0].Email)
			assert.Equal(t, "Confirm your subscription to Weekly Go", body.Personalizations[0].Subject)
			assert.Equal(t, "news@example.com", body.From.Email)
			assert.Equal(t, "text/html", body.Content[0].Type)
			assert.Contains(t, body.Content[0].Value, "https://news.example.com/confirm?token=abc")

			w.Header().Set("X-Message-Id", "sg-123")
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		p, err := email.NewProvider("sendgrid", cfg, email.WithBaseURL(srv.URL), noRetry(srv))
		require.NoError(t, err)

		res := p.SendConfirmationEmail(context.Background(), confirmParams)
		assert.True(t, res.Success, res.Error)
		assert.Equal(t, "sg-123", res.MessageID)
		assert.Equal(t, "sendgrid", res.Provider)
	})

	t.Run("api error message", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"errors":[{"message":"The from address does not match a verified Sender Identity."}]}`)
		}))
		defer srv.Close()

		p, err := email.NewProvider("sendgrid", cfg, email.WithBaseURL(srv.URL), noRetry(srv))
		require.NoError(t, err)

		res := p.SendConfirmationEmail(context.Background(), confirmParams)
		assert.False(t, res.Success)
		assert.Equal(t, "The from address does not match a verified Sender Identity.", res.Error)
		require.ErrorIs(t, res.Err(), email.ErrFailedToSendEmail)
	})

	t.Run("unparseable error body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		p, err := email.NewProvider("sendgrid", cfg, email.WithBaseURL(srv.URL), noRetry(srv))
		require.NoError(t, err)

		res := p.SendConfirmationEmail(context.Background(), confirmParams)
		assert.False(t, res.Success)
		assert.Equal(t, "Failed to send email", res.Error)
	})
}

func TestMailgunProvider(t *testing.T) {
	t.Parallel()

	cfg := email.Config{MailgunAPIKey: "mg-key", MailgunDomain: "mg.example.com", FromEmail: "news@example.com"}

	t.Run("success trims angle brackets", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v3/mg.example.com/messages", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "api", user)
			assert.Equal(t, "mg-key", pass)

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "news@example.com", r.PostForm.Get("from"))
			assert.Equal(t, "reader@example.com", r.PostForm.Get("to"))
			assert.Equal(t, "Welcome to Weekly Go!", r.PostForm.Get("subject"))
			assert.Contains(t, r.PostForm.Get("html"), "unsubscribe")

			_, _ = io.WriteString(w, `{"id":"<20240115.1@mg.example.com>","message":"Queued. Thank you."}`)
		}))
		defer srv.Close()

		p, err := email.NewProvider("mailgun", cfg, email.WithBaseURL(srv.URL), noRetry(srv))
		require.NoError(t, err)

		res := p.SendWelcomeEmail(context.Background(), email.WelcomeParams{
			To:             "reader@example.com",
			SiteName:       "Weekly Go",
			UnsubscribeURL: "https://news.example.com/unsubscribe?token=u1",
		})
		assert.True(t, res.Success, res.Error)
		assert.Equal(t, "20240115.1@mg.example.com", res.MessageID)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid private key"}`)
		}))
		defer srv.Close()

		p, err := email.NewProvider("mailgun", cfg, email.WithBaseURL(srv.URL), noRetry(srv))
		require.NoError(t, err)

		res := p.SendConfirmationEmail(context.Background(), confirmParams)
		assert.False(t, res.Success)
		assert.Equal(t, "Invalid private key", res.Error)
	})
}

func TestSESProvider(t *testing.T) {
	t.Parallel()

	cfg := email.Config{
		AWSAccessKeyID:     testAccessKey,
		AWSSecretAccessKey: testSecretKey,
		AWSRegion:          "us-east-1",
		FromEmail:          "news@example.com",
	}

	t.Run("signed form request", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			assert.Equal(t, "20240115T120000Z", r.Header.Get("X-Amz-Date"))
			assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"),
				"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20240115/us-east-1/ses/aws4_request"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(body), "Action=SendEmail&Version=2010-12-01&Source=news%40example.com"))

			form, err := url.ParseQuery(string(body))
			require.NoError(t, err)
			assert.Equal(t, "reader@example.com", form.Get("Destination.ToAddresses.member.1"))

			_, _ = io.WriteString(w, `<SendEmailResponse><SendEmailResult><MessageId>ses-0001</MessageId></SendEmailResult></SendEmailResponse>`)
		}))
		defer srv.Close()

		p, err := email.NewProvider("aws-ses", cfg, email.WithBaseURL(srv.URL), email.WithClock(fixedClock), noRetry(srv))
		require.NoError(t, err)

		res := p.SendConfirmationEmail(context.Background(), confirmParams)
		assert.True(t, res.Success, res.Error)
		assert.Equal(t, "ses-0001", res.MessageID)
	})

	t.Run("api error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `<ErrorResponse><Error><Message>Email address is not verified.</Message></Error></ErrorResponse>`)
		}))
		defer srv.Close()

		p, err := email.NewProvider("aws-ses", cfg, email.WithBaseURL(srv.URL), noRetry(srv))
		require.NoError(t, err)

		res := p.SendConfirmationEmail(context.Background(), confirmParams)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "Email address is not verified.")
	})

	t.Run("no newsletter capability", func(t *testing.T) {
		t.Parallel()

		p, err := email.NewProvider("aws-ses", cfg)
		require.NoError(t, err)
		_, ok := p.(email.NewsletterSender)
		assert.False(t, ok)
	})

	t.Run("injected credentials provider", func(t *testing.T) {
		t.Parallel()

		p, err := email.NewProvider("aws-ses",
			email.Config{AWSRegion: "eu-west-1", FromEmail: "news@example.com"},
			email.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(testAccessKey, testSecretKey, "tok")),
		)
		require.NoError(t, err)
		assert.Equal(t, "aws-ses", p.Name())
	})
}

func TestResendProvider(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))

		var body struct {
			From    string   `json:"from"`
			To      []string `json:"to"`
			Subject string   `json:"subject"`
			HTML    string   `json:"html"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"reader@example.com"}, body.To)
		assert.Equal(t, "Big news", body.Subject)
		assert.Contains(t, body.HTML, "<h1>Hello</h1>")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"re-42"}`)
	}))
	defer srv.Close()

	p, err := email.NewProvider("resend",
		email.Config{ResendAPIKey: "re_key", FromEmail: "news@example.com"},
		email.WithBaseURL(srv.URL), email.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	sender, ok := p.(email.NewsletterSender)
	require.True(t, ok)

	res := sender.SendNewsletter(context.Background(), email.NewsletterParams{
		To:      "reader@example.com",
		Subject: "Big news",
		Content: "<h1>Hello</h1>",
	})
	assert.True(t, res.Success, res.Error)
	assert.Equal(t, "re-42", res.MessageID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostmarkProvider(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pm-server", r.Header.Get("X-Postmark-Server-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"To":"reader@example.com","MessageID":"pm-1","ErrorCode":0,"Message":"OK"}`)
	}))
	defer srv.Close()

	p, err := email.NewProvider("postmark",
		email.Config{PostmarkServerToken: "pm-server", FromEmail: "news@example.com"},
		email.WithBaseURL(srv.URL), email.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	res := p.SendConfirmationEmail(context.Background(), confirmParams)
	assert.True(t, res.Success, res.Error)
	assert.Equal(t, "pm-1", res.MessageID)
}

func TestDevProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := email.NewProvider("dev", email.Config{DevOutputDir: dir, FromEmail: "news@example.com"})
	require.NoError(t, err)

	res := p.SendConfirmationEmail(context.Background(), confirmParams)
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.MessageID)

	htmlFiles, err := filepath.Glob(filepath.Join(dir, "*_confirmation_*.html"))
	require.NoError(t, err)
	require.Len(t, htmlFiles, 1)

	body, err := os.ReadFile(htmlFiles[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "Confirm Subscription")

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, jsonFiles, 1)

	raw, err := os.ReadFile(jsonFiles[0])
	require.NoError(t, err)
	var envelope map[string]string
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, res.MessageID, envelope["message_id"])
	assert.Equal(t, "reader@example.com", envelope["to"])
	assert.Equal(t, "Confirm your subscription to Weekly Go", envelope["subject"])
}

func TestProvidersRejectIncompleteParams(t *testing.T) {
	t.Parallel()

	p, err := email.NewProvider("dev", email.Config{DevOutputDir: t.TempDir()})
	require.NoError(t, err)

	res := p.SendConfirmationEmail(context.Background(), email.ConfirmationParams{To: "reader@example.com"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "confirmation url")
}
