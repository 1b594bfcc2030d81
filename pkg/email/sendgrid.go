package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/newsletter/pkg/httpretry"
)

const sendGridBaseURL = "https://api.sendgrid.com"

type sendGridProvider struct {
	apiKey  string
	from    string
	baseURL string
	doer    httpretry.Doer
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To      []sendGridAddress `json:"to"`
	Subject string            `json:"subject"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func newSendGrid(cfg Config, o providerOptions) *sendGridProvider {
	base := sendGridBaseURL
	if o.baseURL != "" {
		base = o.baseURL
	}
	return &sendGridProvider{
		apiKey:  cfg.SendGridAPIKey,
		from:    cfg.FromEmail,
		baseURL: strings.TrimSuffix(base, "/"),
		doer:    o.doer,
	}
}

// Name returns "sendgrid".
func (p *sendGridProvider) Name() string { return ProviderSendGrid }

func (p *sendGridProvider) missing() []string {
	return missingFields("SENDGRID_API_KEY", p.apiKey, "FROM_EMAIL", p.from)
}

// ValidateConfig reports whether the API key and sender are set.
func (p *sendGridProvider) ValidateConfig() bool { return len(p.missing()) == 0 }

// SendConfirmationEmail posts the confirmation email to the v3 mail/send API.
func (p *sendGridProvider) SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result {
	msg, err := confirmationMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendWelcomeEmail posts the welcome email to the v3 mail/send API.
func (p *sendGridProvider) SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result {
	msg, err := welcomeMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

// SendNewsletter posts one newsletter copy to the v3 mail/send API.
func (p *sendGridProvider) SendNewsletter(ctx context.Context, params NewsletterParams) Result {
	msg, err := newsletterMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.send(ctx, msg)
}

func (p *sendGridProvider) send(ctx context.Context, msg Message) Result {
	payload, err := json.Marshal(sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To:      []sendGridAddress{{Email: msg.To}},
			Subject: msg.Subject,
		}},
		From:    sendGridAddress{Email: msg.From},
		Content: []sendGridContent{{Type: "text/html", Value: msg.HTML}},
	})
	if err != nil {
		return failed(p.Name(), fmt.Errorf("encode request: %w", err))
	}

	req, err := newRequest(ctx, p.baseURL+"/v3/mail/send", "application/json", payload)
	if err != nil {
		return failed(p.Name(), err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := do(p.doer, req)
	if err != nil {
		return failed(p.Name(), err)
	}
	if !resp.ok() {
		return failed(p.Name(), errors.New(sendGridErrorMessage(resp.body)))
	}
	// SendGrid answers 202 with an empty body; the id lives in a header.
	return succeeded(p.Name(), resp.header.Get("X-Message-Id"))
}

func sendGridErrorMessage(body []byte) string {
	var e sendGridError
	if err := json.Unmarshal(body, &e); err == nil && len(e.Errors) > 0 && e.Errors[0].Message != "" {
		return e.Errors[0].Message
	}
	return "Failed to send email"
}
