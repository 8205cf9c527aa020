package sessions

import (
	"errors"
	"time"
)

// Session is a refresh session as stored under session:{id}.
// Times are epoch milliseconds.
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	DeviceID     string `json:"deviceId"`
	RefreshToken string `json:"refreshToken"`
	CSRFToken    string `json:"csrfToken"`
	CreatedAt    int64  `json:"createdAt"`
	LastUsedAt   int64  `json:"lastUsedAt"`
	WasUsed      bool   `json:"wasUsed"`
	IsRevoked    bool   `json:"isRevoked"`
	ExpiresAt    int64  `json:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.UnixMilli()
}

// Active reports whether the session can still be redeemed.
func (s *Session) Active(now time.Time) bool {
	return !s.IsRevoked && !s.Expired(now)
}

// TTL is the remaining lifetime, at least one second so a write
// never creates a key without expiry.
func (s *Session) TTL(now time.Time) time.Duration {
	left := time.Duration(s.ExpiresAt-now.UnixMilli()) * time.Millisecond
	if left < time.Second {
		return time.Second
	}
	return left
}

func (s *Session) validate() error {
	switch {
	case s.ID == "":
		return errors.New("missing id")
	case s.UserID == "":
		return errors.New("missing userId")
	case s.RefreshToken == "":
		return errors.New("missing refreshToken")
	case s.ExpiresAt <= 0:
		return errors.New("missing expiresAt")
	}
	return nil
}
