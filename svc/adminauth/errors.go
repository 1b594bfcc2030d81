package adminauth

import "errors"

var (
	ErrPasswordRequired = errors.New("adminauth: password is required")
	ErrInvalidPassword  = errors.New("adminauth: invalid password")
	ErrNotConfigured    = errors.New("adminauth: no admin password configured")
	ErrSessionNotFound  = errors.New("adminauth: session not found")
	ErrSessionExpired   = errors.New("adminauth: session expired")
)

// Client-facing messages.
const (
	MsgPasswordRequired = "Password is required"
	MsgUnavailable      = "Authentication service unavailable"
	MsgInvalidPassword  = "Invalid password"
	MsgLoggedIn         = "Authentication successful"
	MsgLoggedOut        = "Logged out successfully"
	MsgLogoutFailed     = "Logout failed"
	MsgLoginFailed      = "Authentication failed. Please try again."
	MsgUnauthorized     = "Unauthorized - Admin access required"
)
