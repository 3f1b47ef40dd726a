package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated indicates the operator has no active session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired indicates the upstream rejected the bearer token;
	// the session has been destroyed and the operator must sign in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
