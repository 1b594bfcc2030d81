package email

import (
	"fmt"
	"html/template"
	"strings"
)

const defaultSiteName = "our newsletter"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Confirm Your Subscription</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: #333; margin-bottom: 10px;">Confirm Your Subscription</h1>
    <p style="color: #666; font-size: 16px;">Thanks for subscribing to {{.SiteName}}!</p>
  </div>
  <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin-bottom: 30px;">
    <p style="margin: 0; color: #333;">
      To complete your subscription and start receiving our newsletter, please click the button below:
    </p>
  </div>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.ConfirmationURL}}"
       style="display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">
      Confirm Subscription
    </a>
  </div>
  <div style="border-top: 1px solid #eee; padding-top: 20px; margin-top: 30px;">
    <p style="color: #666; font-size: 14px; margin: 0;">
      If you didn't subscribe to this newsletter, you can safely ignore this email.
    </p>
    <p style="color: #666; font-size: 14px; margin: 5px 0 0 0;">
      This confirmation link will expire in 24 hours.
    </p>
  </div>
</body>
</html>
`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome!</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: #333; margin-bottom: 10px;">Welcome to {{.SiteName}}! 🎉</h1>
    <p style="color: #666; font-size: 16px;">Your subscription has been confirmed successfully.</p>
  </div>
  <div style="background: #d4edda; padding: 20px; border-radius: 8px; margin-bottom: 30px; border-left: 4px solid #28a745;">
    <p style="margin: 0; color: #155724;">
      Thank you for confirming your email address. You're now subscribed and will receive our latest updates!
    </p>
  </div>
  <div style="border-top: 1px solid #eee; padding-top: 20px; margin-top: 30px;">
    <p style="color: #666; font-size: 14px; margin: 0;">
      Thanks for joining us! We're excited to share great content with you.
    </p>
    {{- if .UnsubscribeURL}}
    <p style="color: #999; font-size: 12px; margin-top: 20px; text-align: center;">
      You can <a href="{{.UnsubscribeURL}}" style="color: #999;">unsubscribe</a> at any time.
    </p>
    {{- end}}
  </div>
</body>
</html>
`))

var newsletterTmpl = template.Must(template.New("newsletter").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="padding: 20px;">
    {{.Content}}
  </div>
  {{- if .UnsubscribeURL}}
  <div style="border-top: 1px solid #eee; padding-top: 20px; margin-top: 30px;">
    <p style="color: #999; font-size: 12px; text-align: center; margin: 0;">
      You can <a href="{{.UnsubscribeURL}}" style="color: #999; text-decoration: none;">unsubscribe</a> at any time.
    </p>
  </div>
  {{- end}}
</body>
</html>
`))

func siteNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return defaultSiteName
	}
	return name
}

// ConfirmationSubject returns the subject line of the double opt-in email.
func ConfirmationSubject(siteName string) string {
	return "Confirm your subscription to " + siteNameOrDefault(siteName)
}

// WelcomeSubject returns the subject line of the welcome email.
func WelcomeSubject(siteName string) string {
	return "Welcome to " + siteNameOrDefault(siteName) + "!"
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: render %s template: %v", ErrInvalidParams, t.Name(), err)
	}
	return b.String(), nil
}

// RenderConfirmation builds the HTML body of the confirmation email.
func RenderConfirmation(p ConfirmationParams) (string, error) {
	return render(confirmationTmpl, struct {
		SiteName        string
		ConfirmationURL string
	}{siteNameOrDefault(p.SiteName), p.ConfirmationURL})
}

// RenderWelcome builds the HTML body of the welcome email.
func RenderWelcome(p WelcomeParams) (string, error) {
	return render(welcomeTmpl, struct {
		SiteName       string
		UnsubscribeURL string
	}{siteNameOrDefault(p.SiteName), p.UnsubscribeURL})
}

// RenderNewsletter wraps the newsletter content in the broadcast layout.
// Content is inserted verbatim; it comes from an authenticated admin.
func RenderNewsletter(p NewsletterParams) (string, error) {
	return render(newsletterTmpl, struct {
		Subject        string
		Content        template.HTML
		UnsubscribeURL string
	}{p.Subject, template.HTML(p.Content), p.UnsubscribeURL})
}

func confirmationMessage(from string, p ConfirmationParams) (Message, error) {
	if p.To == "" || p.ConfirmationURL == "" {
		return Message{}, fmt.Errorf("%w: recipient and confirmation url are required", ErrInvalidParams)
	}
	html, err := RenderConfirmation(p)
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: p.To, Subject: ConfirmationSubject(p.SiteName), HTML: html}, nil
}

func welcomeMessage(from string, p WelcomeParams) (Message, error) {
	if p.To == "" {
		return Message{}, fmt.Errorf("%w: recipient is required", ErrInvalidParams)
	}
	html, err := RenderWelcome(p)
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: p.To, Subject: WelcomeSubject(p.SiteName), HTML: html}, nil
}

func newsletterMessage(from string, p NewsletterParams) (Message, error) {
	if p.To == "" || p.Subject == "" {
		return Message{}, fmt.Errorf("%w: recipient and subject are required", ErrInvalidParams)
	}
	html, err := RenderNewsletter(p)
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: p.To, Subject: p.Subject, HTML: html}, nil
}
