package email

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/dmitrymomot/newsletter/pkg/httpretry"
)

const defaultHTTPTimeout = 30 * time.Second

// ProviderOption tunes how an adapter reaches its API.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
	doer       httpretry.Doer
	baseURL    string
	now        func() time.Time
	creds      aws.CredentialsProvider
}

func newProviderOptions(opts ...ProviderOption) providerOptions {
	o := providerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if o.doer == nil {
		o.doer = httpretry.New(o.httpClient)
	}
	return o
}

// WithHTTPClient sets the client used by SDK-backed adapters (Resend, Postmark)
// and, unless WithHTTPDoer is given, wrapped with retries for the raw HTTP adapters.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(o *providerOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithHTTPDoer replaces the transport of the raw HTTP adapters (SendGrid, Mailgun, SES).
func WithHTTPDoer(d httpretry.Doer) ProviderOption {
	return func(o *providerOptions) {
		if d != nil {
			o.doer = d
		}
	}
}

// WithBaseURL points an adapter at a different API root. Used by tests.
func WithBaseURL(u string) ProviderOption {
	return func(o *providerOptions) {
		o.baseURL = u
	}
}

// WithClock overrides the clock used for request signing.
func WithClock(now func() time.Time) ProviderOption {
	return func(o *providerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCredentialsProvider overrides the static AWS credentials taken from Config.
func WithCredentialsProvider(p aws.CredentialsProvider) ProviderOption {
	return func(o *providerOptions) {
		o.creds = p
	}
}
