package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/dmitrymomot/newsletter/pkg/httpretry"
)

const mailgunBaseURL = "https://api.mailgun.net"

type mailgunProvider struct {
	apiKey  string
	domain  string
	from    string
	baseURL string
	doer    httpretry.Doer
}

type mailgunResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func newMailgun(cfg Config, o providerOptions) *mailgunProvider {
	base := mailgunBaseURL
	if o.baseURL != "" {
		base = o.baseURL
	}
	return &mailgunProvider{
		apiKey:  cfg.MailgunAPIKey,
		domain:  cfg.MailgunDomain,
		from:    cfg.FromEmail,
		baseURL: strings.TrimSuffix(base, "/"),
		doer:    o.doer,
	}
}

// Name returns "mailgun".
func (p *mailgunProvider) Name() string { return ProviderMailgun }

func (p *mailgunProvider) missing() []string {
	return missingFields("MAILGUN_API_KEY", p.apiKey, "MAILGUN_DOMAIN", p.domain, "FROM_EMAIL", p.from)
}

// ValidateConfig reports whether the API key, domain and sender are set.
func (p *mailgunProvider) ValidateConfig() bool { return len(p.missing()) == 0 }

// SendConfirmationEmail posts the confirmation email to the Mailgun messages API.
func (p *mailgunProvider) SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result {
	msg, err := confirmationMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendWelcomeEmail posts the welcome email to the Mailgun messages API.
func (p *mailgunProvider) SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result {
	msg, err := welcomeMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendNewsletter posts one newsletter copy to the Mailgun messages API.
func (p *mailgunProvider) SendNewsletter(ctx context.Context, params NewsletterParams) Result {
	msg, err := newsletterMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

func (p *mailgunProvider) send(ctx context.Context, msg Message) Result {
	form := url.Values{}
	form.Set("from", msg.From)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("html", msg.HTML)

	endpoint := p.baseURL + "/v3/" + url.PathEscape(p.domain) + "/messages"
	req, err := newRequest(ctx, endpoint, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return failed(p.Name(), err)
	}
	req.SetBasicAuth("api", p.apiKey)

	resp, err := do(p.doer, req)
	if err != nil {
		return failed(p.Name(), err)
	}

	var body mailgunResponse
	_ = json.Unmarshal(resp.body, &body)
	if !resp.ok() {
		if body.Message == "" {
			body.Message = "Failed to send email"
		}
		return failed(p.Name(), errors.New(body.Message))
	}
	return succeeded(p.Name(), strings.Trim(body.ID, "<>"))
}
