package newsletter

import "time"

type Config struct {
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"` // AllowedOrigins for CORS; "*" allows any origin.
	TrustProxy     bool          `env:"TRUST_PROXY" envDefault:"false"`                       // TrustProxy reads client IPs from proxy headers.
	ReadyTimeout   time.Duration `env:"READY_TIMEOUT" envDefault:"2s"`                        // ReadyTimeout bounds the readiness checks.
}
