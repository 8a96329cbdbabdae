package models

import "time"

// TokenKind distinguishes access from refresh tokens
type TokenKind string

// TokenKind constants
const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair is what clients receive after login or refresh
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// BlacklistedToken records a refresh token that has already been exchanged
type BlacklistedToken struct {
	JTI           string    `json:"jti" db:"jti"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
	BlacklistedAt time.Time `json:"blacklisted_at" db:"blacklisted_at"`
}

// QuotaCounter is the request count of one caller key inside its current window
type QuotaCounter struct {
	Key         string    `json:"key" db:"key"`
	WindowStart time.Time `json:"window_start" db:"window_start"`
	Count       int64     `json:"count" db:"count"`
}

// ResetAt returns the instant the window closes
func (q QuotaCounter) ResetAt(window time.Duration) time.Time {
	return q.WindowStart.Add(window)
}
