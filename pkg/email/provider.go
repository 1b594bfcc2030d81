package email

import (
	"context"
	"errors"
)

// Provider is the capability every email adapter offers.
// Send methods never return Go errors: failures are reported in Result.
type Provider interface {
	Name() string
	ValidateConfig() bool
	SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result
	SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result
}

// NewsletterSender is implemented by providers that can deliver broadcasts.
type NewsletterSender interface {
	SendNewsletter(ctx context.Context, params NewsletterParams) Result
}

// Result describes the outcome of a single send.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	Provider  string `json:"provider"`
}

// Err converts a failed Result into an error wrapping ErrFailedToSendEmail.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return ErrFailedToSendEmail
	}
	return errors.Join(ErrFailedToSendEmail, errors.New(r.Provider+": "+r.Error))
}

// ConfirmationParams are the inputs of the double opt-in email.
type ConfirmationParams struct {
	To              string
	ConfirmationURL string
	SiteName        string
}

// WelcomeParams are the inputs of the email sent after confirmation.
type WelcomeParams struct {
	To             string
	SiteName       string
	UnsubscribeURL string
}

// NewsletterParams are the inputs of one broadcast copy.
type NewsletterParams struct {
	To             string
	Subject        string
	Content        string // trusted HTML
	SiteName       string
	UnsubscribeURL string
}

// Message is a rendered email ready for a transport.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

func succeeded(provider, messageID string) Result {
	return Result{Success: true, MessageID: messageID, Provider: provider}
}

func failed(provider string, err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Success: false, Error: msg, Provider: provider}
}
