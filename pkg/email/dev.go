package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// devProvider writes every message to disk as an HTML body plus a JSON envelope.
// Nothing leaves the machine, so it is the default for local runs.
type devProvider struct {
	dir  string
	from string
	now  func() time.Time
}

type devEnvelope struct {
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	Kind      string `json:"kind"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
}

func newDev(cfg Config, o providerOptions) *devProvider {
	return &devProvider{dir: cfg.DevOutputDir, from: cfg.FromEmail, now: o.now}
}

// Name returns "dev".
func (p *devProvider) Name() string { return ProviderDev }

func (p *devProvider) missing() []string {
	return missingFields("EMAIL_DEV_DIR", p.dir)
}

// ValidateConfig reports whether an output directory is set.
func (p *devProvider) ValidateConfig() bool { return len(p.missing()) == 0 }

// SendConfirmationEmail writes the confirmation email to the output directory.
func (p *devProvider) SendConfirmationEmail(ctx context.Context, params ConfirmationParams) Result {
	msg, err := confirmationMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.write(ctx, "confirmation", msg)
}

// SendWelcomeEmail writes the welcome email to the output directory.
func (p *devProvider) SendWelcomeEmail(ctx context.Context, params WelcomeParams) Result {
	msg, err := welcomeMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.write(ctx, "welcome", msg)
}

// SendNewsletter writes one newsletter copy to the output directory.
func (p *devProvider) SendNewsletter(ctx context.Context, params NewsletterParams) Result {
	msg, err := newsletterMessage(p.from, params)
	if err != nil {
		return failed(p.Name(), err)
	}
	return p.write(ctx, "newsletter", msg)
}

func (p *devProvider) write(ctx context.Context, kind string, msg Message) Result {
	if err := ctx.Err(); err != nil {
		return failed(p.Name(), err)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return failed(p.Name(), fmt.Errorf("create directory: %w", err))
	}

	now := p.now()
	id := uuid.NewString()
	base := fmt.Sprintf("%s_%s_%s_%s", now.Format("2006_01_02_150405"), kind, sanitizeFilename(msg.To), id[:8])

	if err := os.WriteFile(filepath.Join(p.dir, base+".html"), []byte(msg.HTML), 0o644); err != nil {
		return failed(p.Name(), fmt.Errorf("write html: %w", err))
	}

	envelope, err := json.MarshalIndent(devEnvelope{
		MessageID: id,
		Timestamp: now.Format(time.RFC3339),
		Kind:      kind,
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
	}, "", "  ")
	if err != nil {
		return failed(p.Name(), fmt.Errorf("encode envelope: %w", err))
	}
	if err := os.WriteFile(filepath.Join(p.dir, base+".json"), envelope, 0o644); err != nil {
		return failed(p.Name(), fmt.Errorf("write envelope: %w", err))
	}

	return succeeded(p.Name(), id)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "@", "_at_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
