package email

// Config selects the email provider and carries every provider's credentials.
// Only the credentials of the selected provider need to be set.
type Config struct {
	Provider  string `env:"EMAIL_PROVIDER" envDefault:"resend"`
	FromEmail string `env:"FROM_EMAIL"`
	SiteURL   string `env:"SITE_URL" envDefault:"http://localhost:4321"`
	SiteName  string `env:"SITE_NAME" envDefault:"Newsletter"`

	ResendAPIKey string `env:"RESEND_API_KEY"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionToken    string `env:"AWS_SESSION_TOKEN"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`

	MailgunAPIKey string `env:"MAILGUN_API_KEY"`
	MailgunDomain string `env:"MAILGUN_DOMAIN"`

	DevOutputDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// missingFields returns the names of the empty pairs in fields (name, value, name, value...).
func missingFields(fields ...string) []string {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			missing = append(missing, fields[i])
		}
	}
	return missing
}
