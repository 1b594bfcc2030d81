package email

// SESPayload exposes the SES form encoder to the external test package.
func SESPayload(from, to, subject, html string) []byte {
	return sesPayload(Message{From: from, To: to, Subject: subject, HTML: html})
}
