package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
)

func sessionKey(id string) string         { return "session:" + id }
func refreshTokenKey(token string) string { return "refresh_token:" + token }
func userSessionsKey(userID string) string {
	return "user:" + userID + ":sessions"
}

// Store exposes typed session key spaces over a Cache. Writes to different
// keys are independent; nothing here is transactional.
type Store struct {
	cache Cache
}

func NewStore(c Cache) *Store {
	return &Store{cache: c}
}

// GetSession loads a session record. Missing or malformed values
// return (nil, nil).
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	const op = "sessions.GetSession"

	if id == "" {
		return nil, nil
	}
	b, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		logger.Warn("malformed_session_record", "session_id", id, "error", err)
		return nil, nil
	}
	if err := sess.validate(); err != nil {
		logger.Warn("malformed_session_record", "session_id", id, "error", err)
		return nil, nil
	}
	if sess.ID != id {
		logger.Warn("malformed_session_record", "session_id", id, "error", "id mismatch")
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) PutSession(ctx context.Context, sess *Session, ttl time.Duration) error {
	const op = "sessions.PutSession"

	if err := sess.validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ID), b, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserSessionIDs returns the user's active session index. A missing or
// malformed index reads as empty.
func (s *Store) GetUserSessionIDs(ctx context.Context, userID string) ([]string, error) {
	const op = "sessions.GetUserSessionIDs"

	b, err := s.cache.Get(ctx, userSessionsKey(userID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		logger.Warn("malformed_session_index", "user_id", userID, "error", err)
		return nil, nil
	}
	return dedupe(ids), nil
}

// PutUserSessionIDs overwrites the index, dropping duplicates and empty ids
// while keeping order. An empty index deletes the key.
func (s *Store) PutUserSessionIDs(ctx context.Context, userID string, ids []string, ttl time.Duration) error {
	const op = "sessions.PutUserSessionIDs"

	ids = dedupe(ids)
	if len(ids) == 0 {
		if err := s.cache.Del(ctx, userSessionsKey(userID)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, userSessionsKey(userID), b, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) MapRefreshToken(ctx context.Context, token, sessionID string, ttl time.Duration) error {
	if token == "" || sessionID == "" {
		return errors.New("sessions.MapRefreshToken: empty token or session id")
	}
	if err := s.cache.Set(ctx, refreshTokenKey(token), []byte(sessionID), ttl); err != nil {
		return fmt.Errorf("sessions.MapRefreshToken: %w", err)
	}
	return nil
}

// ResolveRefreshToken returns the session id a refresh token maps to, or ""
// when the token is unknown.
func (s *Store) ResolveRefreshToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := s.cache.Get(ctx, refreshTokenKey(token))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", nil
		}
		return "", fmt.Errorf("sessions.ResolveRefreshToken: %w", err)
	}
	return string(b), nil
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
