// Package email delivers the newsletter's transactional mail through one of
// several providers chosen at startup.
//
// Provider is the contract every adapter satisfies. Adapters never return Go
// errors from a send; the outcome is a Result carrying either a message id
// or a failure description. Newsletter delivery is optional: adapters that
// can broadcast also implement NewsletterSender, and callers discover it with
// a type assertion. The SES adapter does not.
//
// Supported providers (EMAIL_PROVIDER):
//
//	resend    resend-go SDK
//	postmark  mrz1836/postmark SDK
//	sendgrid  v3 mail/send over HTTP
//	mailgun   v3 messages over HTTP
//	aws-ses   SES query API over HTTP, signed with SigV4
//	dev       writes .html and .json files to EMAIL_DEV_DIR
//
// The raw HTTP adapters send through httpretry, so 429 and 5xx answers are
// retried with backoff.
//
// Service is the facade the rest of the application uses. It turns tokens
// into confirmation and unsubscribe links under SITE_URL, logs every send with
// a masked recipient and reports it to an optional SendObserver:
//
//	svc, err := email.NewService(cfg, email.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	res := svc.SendConfirmationEmail(ctx, "reader@example.com", token)
//	if !res.Success {
//	    // res.Error describes the failure
//	}
package email
