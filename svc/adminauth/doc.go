// Package adminauth guards the admin API with a single shared password.
//
// A successful Login stores a Session under "session:<token>" in the
// key-value store with a TTL and hands the token to the browser in the
// HttpOnly admin_session cookie. Middleware resolves the cookie on every
// admin request and deletes sessions it finds expired, for backends whose
// TTL support is coarse.
//
// The password is configured either in plain text (ADMIN_PASSWORD), compared
// in constant time, or as a bcrypt hash (ADMIN_PASSWORD_HASH).
package adminauth
