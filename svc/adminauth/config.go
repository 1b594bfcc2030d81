package adminauth

import "time"

type Config struct {
	Password     string        `env:"ADMIN_PASSWORD"`                        // Password is the plain text admin password.
	PasswordHash string        `env:"ADMIN_PASSWORD_HASH"`                   // PasswordHash is a bcrypt hash; it wins over Password.
	SessionTTL   time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"24h"`    // SessionTTL is the session and cookie lifetime.
	CookieSecure bool          `env:"ADMIN_COOKIE_SECURE" envDefault:"true"` // CookieSecure sets the Secure cookie attribute.
	TrustProxy   bool          `env:"ADMIN_TRUST_PROXY" envDefault:"false"`  // TrustProxy reads the client IP from proxy headers.
}

// DefaultSessionTTL applies when Config.SessionTTL is not positive.
const DefaultSessionTTL = 24 * time.Hour

func (c Config) configured() bool {
	return c.Password != "" || c.PasswordHash != ""
}

func (c Config) ttl() time.Duration {
	if c.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return c.SessionTTL
}
