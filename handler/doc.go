// Package handler turns typed handler functions into http.HandlerFunc values
// and renders the service's JSON envelope.
//
// Every response body has the shape
//
//	{"success": true, "message": "...", ...extra fields}
//
// OK and Fail build envelopes directly. Errors returned through an
// ErrorHandler are classified by ClassifyError: an HTTPError keeps its code
// and message, binder errors become 400/415 and everything else is logged
// and rendered as a generic 500 so internal details never leak.
//
//	type confirmRequest struct {
//		Token string `query:"token"`
//	}
//
//	r.Get("/confirm", handler.Wrap(confirm,
//		handler.WithBinders[confirmRequest](binder.Query()),
//		handler.WithErrorHandler[confirmRequest](handler.NewErrorHandler(log)),
//	))
package handler
