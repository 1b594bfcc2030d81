// Package newsletter is the HTTP boundary of the service.
//
// Router mounts the public subscription endpoints, the admin login and the
// session-guarded admin API on a chi router, together with health, readiness
// and metrics endpoints. Every API response is a JSON envelope of the form
// {"success":bool,"message":string,...}; service errors are mapped to status
// codes in one place (see httpError).
//
// Request bodies may be form encoded, multipart or JSON.
package newsletter
