package auth

import "errors"

var (
	// ErrAuthentication covers bad credentials and inactive accounts. One message
	// for every cause so callers cannot enumerate accounts.
	ErrAuthentication = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, expired, signature-invalid, revoked, and
	// reused tokens. One message for every cause; the internal distinction lives
	// only in logs.
	ErrInvalidToken = errors.New("session expired, please log in again")

	// ErrRefreshTimeout is returned when the refresh executor does not complete
	// within its bound. Callers treat it like ErrInvalidToken and re-authenticate.
	ErrRefreshTimeout = errors.New("token refresh timed out")
)
