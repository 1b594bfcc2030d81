package email

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

type resendProvider struct {
	apiKey string
	from   string
	client *resend.Client
}

func newResend(cfg Config, o providerOptions) *resendProvider {
	client := resend.NewCustomClient(o.httpClient, cfg.ResendAPIKey)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			client.BaseURL = u
		}
	}
	return &resendProvider{apiKey: cfg.ResendAPIKey, from: cfg.FromEmail, client: client}
}

// Name returns "resend".
func (p *resendProvider) Name() string { return ProviderResend }

func (p *resendProvider) missing() []string {
	return missingFields("RESEND_API_KEY", p.apiKey, "FROM_EMAIL", p.from)
}

// ValidateConfig reports whether the API key and sender are set.
func (p *resendProvider) ValidateConfig() bool { return len(p.missing()) == 0 }

// SendConfirmationEmail sends the confirmation email through the Resend SDK.
func (p *resendProvider) SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result {
	msg, err := confirmationMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendWelcomeEmail sends the welcome email through the Resend SDK.
func (p *resendProvider) SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result {
	msg, err := welcomeMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendNewsletter sends one newsletter copy through the Resend SDK.
func (p *resendProvider) SendNewsletter(ctx context.Context, params NewsletterParams) Result {
	msg, err := newsletterMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

func (p *resendProvider) send(ctx context.Context, msg Message) Result {
	resp, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return failed(p.Name(), err)
	}
	if resp == nil || resp.Id == "" {
		return failed(p.Name(), errors.New("resend returned no message id"))
	}
	return succeeded(p.Name(), resp.Id)
}
