package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/dmitrymomot/newsletter/pkg/httpretry"
)

const (
	sesService    = "ses"
	sesAPIVersion = "2010-12-01"
)

var (
	sesMessageIDRe = regexp.MustCompile(`<MessageId>(.*?)</MessageId>`)
	sesErrorRe     = regexp.MustCompile(`<Message>(.*?)</Message>`)
)

// sesProvider talks to the SES v1 query API. It has no newsletter capability.
type sesProvider struct {
	accessKey string
	secretKey string
	// true when credentials come from WithCredentialsProvider
	externalCreds bool
	region        string
	from          string
	endpoint      string
	doer          httpretry.Doer
	signer        *SigV4Signer
}

func newSES(cfg Config, o providerOptions) *sesProvider {
	region := cfg.AWSRegion
	if region == "" {
		region = "us-east-1"
	}
	endpoint := "https://email." + region + ".amazonaws.com/"
	if o.baseURL != "" {
		endpoint = strings.TrimSuffix(o.baseURL, "/") + "/"
	}

	var creds aws.CredentialsProvider = credentials.NewStaticCredentialsProvider(
		cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSSessionToken,
	)
	if o.creds != nil {
		creds = o.creds
	}

	return &sesProvider{
		accessKey:     cfg.AWSAccessKeyID,
		secretKey:     cfg.AWSSecretAccessKey,
		externalCreds: o.creds != nil,
		region:        region,
		from:          cfg.FromEmail,
		endpoint:      endpoint,
		doer:          o.doer,
		signer:        NewSigV4Signer(region, sesService, creds, o.now),
	}
}

// Name returns "ses".
func (p *sesProvider) Name() string { return ProviderSES }

func (p *sesProvider) missing() []string {
	if p.externalCreds {
		return missingFields("AWS_REGION", p.region, "FROM_EMAIL", p.from)
	}
	return missingFields(
		"AWS_ACCESS_KEY_ID", p.accessKey,
		"AWS_SECRET_ACCESS_KEY", p.secretKey,
		"AWS_REGION", p.region,
		"FROM_EMAIL", p.from,
	)
}

// ValidateConfig reports whether credentials, region and sender are set.
func (p *sesProvider) ValidateConfig() bool { return len(p.missing()) == 0 }

// SendConfirmationEmail sends the confirmation email with the SES SendEmail action.
func (p *sesProvider) SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result {
	msg, err := confirmationMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendWelcomeEmail sends the welcome email with the SES SendEmail action.
func (p *sesProvider) SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result {
	msg, err := welcomeMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

func (p *sesProvider) send(ctx context.Context, msg Message) Result {
	payload := sesPayload(msg)

	req, err := newRequest(ctx, p.endpoint, "application/x-www-form-urlencoded", payload)
	if err != nil {
		return failed(p.Name(), err)
	}
	req.Header.Del("Accept")
	if err := p.signer.Sign(ctx, req, payload); err != nil {
		return failed(p.Name(), err)
	}

	resp, err := do(p.doer, req)
	if err != nil {
		return failed(p.Name(), err)
	}
	if !resp.ok() {
		if m := sesErrorRe.FindSubmatch(resp.body); m != nil {
			return failed(p.Name(), fmt.Errorf("SES API error: %d %s", resp.status, m[1]))
		}
		return failed(p.Name(), fmt.Errorf("SES API error: %d", resp.status))
	}

	m := sesMessageIDRe.FindSubmatch(resp.body)
	if m == nil {
		return failed(p.Name(), errors.New("SES response has no MessageId"))
	}
	return succeeded(p.Name(), string(m[1]))
}

// sesPayload encodes the SendEmail action with a stable field order,
// which url.Values would sort alphabetically.
func sesPayload(msg Message) []byte {
	fields := [][2]string{
		{"Action", "SendEmail"},
		{"Version", sesAPIVersion},
		{"Source", msg.From},
		{"Destination.ToAddresses.member.1", msg.To},
		{"Message.Subject.Data", msg.Subject},
		{"Message.Subject.Charset", "UTF-8"},
		{"Message.Body.Html.Data", msg.HTML},
		{"Message.Body.Html.Charset", "UTF-8"},
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f[1]))
	}
	return []byte(b.String())
}
