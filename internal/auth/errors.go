package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidRefreshToken     = errors.New("invalid refresh token")
	ErrSessionExpiredOrRevoked = errors.New("session expired or revoked")
	ErrUserNotFound            = errors.New("user not found")
	ErrInternal                = errors.New("internal error")
)

// internal wraps a store or signing failure so callers can match ErrInternal
// while logs keep the cause.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

// resultLabel maps an operation outcome to a metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInvalidRefreshToken):
		return "invalid_refresh_token"
	case errors.Is(err, ErrSessionExpiredOrRevoked):
		return "session_expired_or_revoked"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	default:
		return "internal_error"
	}
}
