package domain

import "errors"

// Error taxonomy for the session and document services. The HTTP layer maps
// these onto status codes; services never reference status codes directly.
var (
	// ErrInvalidInput signals missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenInvalid signals a token whose signature, structure or embedded
	// expiry failed verification.
	ErrTokenInvalid = errors.New("token invalid or expired")

	// ErrSessionNotFound signals that no live session row exists, either
	// because it never existed, was deleted, or lazily expired.
	ErrSessionNotFound = errors.New("session not found or expired")

	// ErrSessionConflict signals that the patient already has an active
	// session.
	ErrSessionConflict = errors.New("active session already exists")

	// ErrForbidden signals a role or ownership mismatch.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated signals a request that requires a signed-in caller.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotFound signals a missing entity other than a session.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail signals a signup with an email already in use.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrInvalidCredentials signals a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
