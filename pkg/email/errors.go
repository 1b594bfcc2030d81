package email

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidConfig          = errors.New("email: invalid provider configuration")
	ErrUnsupportedProvider    = errors.New("email: unsupported provider")
	ErrFailedToSendEmail      = errors.New("email: failed to send email")
	ErrNewsletterNotSupported = errors.New("email: provider does not support newsletters")
	ErrInvalidParams          = errors.New("email: invalid message parameters")
)

// UnsupportedProviderError is returned by NewProvider for unknown provider names.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported email provider: %q (supported: %s)", e.Name, strings.Join(SupportedProviders(), ", "))
}

// Unwrap lets errors.Is match ErrUnsupportedProvider.
func (e *UnsupportedProviderError) Unwrap() error { return ErrUnsupportedProvider }

// InvalidProviderConfigError is returned when a provider's ValidateConfig fails.
// Missing lists the environment variables that were empty.
type InvalidProviderConfigError struct {
	Provider string
	Missing  []string
}

func (e *InvalidProviderConfigError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("invalid configuration for email provider %s", e.Provider)
	}
	return fmt.Sprintf("invalid configuration for email provider %s: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *InvalidProviderConfigError) Unwrap() error { return ErrInvalidConfig }
