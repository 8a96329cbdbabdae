// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrForbidden indicates an authenticated identity may not act on a resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotAuthenticated indicates the operation requires an identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrBadCredentials indicates a username/password pair did not match.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrTokenInvalid covers malformed tokens, bad signatures, wrong algorithm and wrong kind.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired indicates the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked indicates a refresh token that was already exchanged.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrThrottled indicates the caller exhausted its request quota.
	ErrThrottled = errors.New("throttled")

	// ErrInvalidPage indicates a page number outside the result set.
	ErrInvalidPage = errors.New("invalid page")
)

// IsAuthError reports whether err should be answered with 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrBadCredentials) ||
		errors.Is(err, ErrNotAuthenticated)
}
