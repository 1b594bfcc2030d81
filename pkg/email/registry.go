package email

import (
	"slices"
	"strings"
)

type providerFactory func(cfg Config, o providerOptions) Provider

var registry = map[string]providerFactory{
	ProviderResend:   func(cfg Config, o providerOptions) Provider { return newResend(cfg, o) },
	ProviderSES:      func(cfg Config, o providerOptions) Provider { return newSES(cfg, o) },
	ProviderPostmark: func(cfg Config, o providerOptions) Provider { return newPostmark(cfg, o) },
	ProviderSendGrid: func(cfg Config, o providerOptions) Provider { return newSendGrid(cfg, o) },
	ProviderMailgun:  func(cfg Config, o providerOptions) Provider { return newMailgun(cfg, o) },
	ProviderDev:      func(cfg Config, o providerOptions) Provider { return newDev(cfg, o) },
}

// Provider names accepted by EMAIL_PROVIDER.
const (
	ProviderResend   = "resend"
	ProviderSES      = "aws-ses"
	ProviderPostmark = "postmark"
	ProviderSendGrid = "sendgrid"
	ProviderMailgun  = "mailgun"
	ProviderDev      = "dev"
)

// SupportedProviders lists the registered provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type configChecker interface {
	missing() []string
}

// NewProvider builds the named adapter from cfg and validates its credentials.
// Names are matched case-insensitively.
func NewProvider(name string, cfg Config, opts ...ProviderOption) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	factory, ok := registry[key]
	if !ok {
		return nil, &UnsupportedProviderError{Name: name}
	}

	p := factory(cfg, newProviderOptions(opts...))
	if !p.ValidateConfig() {
		var missing []string
		if c, ok := p.(configChecker); ok {
			missing = c.missing()
		}
		return nil, &InvalidProviderConfigError{Provider: p.Name(), Missing: missing}
	}
	return p, nil
}
