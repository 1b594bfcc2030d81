package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

const postmarkTag = "newsletter"

type postmarkProvider struct {
	serverToken string
	from        string
	client      *postmark.Client
}

func newPostmark(cfg Config, o providerOptions) *postmarkProvider {
	client := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	client.HTTPClient = o.httpClient
	if o.baseURL != "" {
		client.BaseURL = strings.TrimSuffix(o.baseURL, "/")
	}
	return &postmarkProvider{serverToken: cfg.PostmarkServerToken, from: cfg.FromEmail, client: client}
}

// Name returns "postmark".
func (p *postmarkProvider) Name() string { return ProviderPostmark }

func (p *postmarkProvider) missing() []string {
	return missingFields("POSTMARK_SERVER_TOKEN", p.serverToken, "FROM_EMAIL", p.from)
}

// ValidateConfig reports whether the server token and sender are set.
func (p *postmarkProvider) ValidateConfig() bool { return len(p.missing()) == 0 }

// SendConfirmationEmail sends the confirmation email tagged "confirmation".
func (p *postmarkProvider) SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result {
	msg, err := confirmationMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg, "confirmation")
}

// SendWelcomeEmail sends the welcome email tagged "welcome".
func (p *postmarkProvider) SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result {
	msg, err := welcomeMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg, "welcome")
}

// SendNewsletter sends one newsletter copy tagged "newsletter".
func (p *postmarkProvider) SendNewsletter(ctx context.Context, params NewsletterParams) Result {
	msg, err := newsletterMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg, postmarkTag)
}

// Opens are tracked; links are left alone so confirmation and unsubscribe URLs stay intact.
func (p *postmarkProvider) send(ctx context.Context, msg Message, tag string) Result {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       msg.From,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        tag,
		HTMLBody:   msg.HTML,
		TrackOpens: true,
	})
	if err != nil {
		return failed(p.Name(), err)
	}
	if resp.ErrorCode > 0 {
		return failed(p.Name(), fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return succeeded(p.Name(), resp.MessageID)
}
