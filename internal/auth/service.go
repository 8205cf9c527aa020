package auth

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/peterphenikaa/zen8labs-auth/internal/audit"
	"github.com/peterphenikaa/zen8labs-auth/internal/models"
	"github.com/peterphenikaa/zen8labs-auth/internal/sessions"
	"github.com/peterphenikaa/zen8labs-auth/internal/tokens"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
	"github.com/peterphenikaa/zen8labs-auth/pkg/metrics"
)

// CredentialVerifier checks credentials and re-resolves identities.
// Both methods return (nil, nil) when no identity matches.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, secret string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
}

type TokenSigner interface {
	Sign(subject string) (string, error)
	Decode(token string) (*tokens.Claims, error)
}

// SessionStore is the typed view of the session cache.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*sessions.Session, error)
	PutSession(ctx context.Context, s *sessions.Session, ttl time.Duration) error
	GetUserSessionIDs(ctx context.Context, userID string) ([]string, error)
	PutUserSessionIDs(ctx context.Context, userID string, ids []string, ttl time.Duration) error
	MapRefreshToken(ctx context.Context, token, sessionID string, ttl time.Duration) error
	ResolveRefreshToken(ctx context.Context, token string) (string, error)
}

type Config struct {
	RefreshTTL         time.Duration
	MaxSessionsPerUser int
}

// Credentials is the submitted identity/secret pair.
type Credentials struct {
	Email    string
	Password string
}

// SessionInfo describes an active session without its secrets.
type SessionInfo struct {
	ID         string `json:"id"`
	DeviceID   string `json:"deviceId"`
	CreatedAt  int64  `json:"createdAt"`
	LastUsedAt int64  `json:"lastUsedAt"`
	WasUsed    bool   `json:"wasUsed"`
	ExpiresAt  int64  `json:"expiresAt"`
	Current    bool   `json:"current,omitempty"`
}

// Service runs the session lifecycle: authenticate, refresh and logout.
type Service struct {
	users  CredentialVerifier
	signer TokenSigner
	store  SessionStore
	audit  audit.Recorder
	cfg    Config
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r audit.Recorder) Option {
	return func(s *Service) { s.audit = r }
}

func NewService(users CredentialVerifier, signer TokenSigner, store SessionStore, cfg Config, opts ...Option) *Service {
	if cfg.MaxSessionsPerUser < 1 {
		cfg.MaxSessionsPerUser = 1
	}
	s := &Service{
		users:  users,
		signer: signer,
		store:  store,
		audit:  audit.NopRecorder{},
		cfg:    cfg,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Authenticate verifies credentials and opens a new session for the client's
// device, superseding that device's previous session and evicting the
// oldest one when the user is at the limit.
func (s *Service) Authenticate(ctx context.Context, creds Credentials, client Client) (*models.LoginResponse, error) {
	tc := &tokenContext{op: "authenticate", now: s.now(), client: client, creds: creds}

	err := run(ctx, tc, []stage{
		{"derive_device", StateInit, s.deriveDevice},
		{"verify_identity", StateIdentityVerified, s.verifyIdentity},
		{"revoke_device_sessions", StatePriorSessionsRevoked, bestEffort("device_revocation", s.revokeDeviceSessions)},
		{"issue_access_token", StateAccessTokenIssued, s.issueAccessToken},
		{"issue_refresh_token", StateRefreshTokenIssued, s.issueRefreshToken},
		{"issue_csrf_token", StateCsrfTokenIssued, s.issueCSRFToken},
		{"evict_oldest", StateCsrfTokenIssued, bestEffort("eviction", s.evictOldest)},
		{"persist_session", StateSessionPersisted, s.persistNewSession},
		{"respond", StateResponded, s.computeExpiry},
	})
	metrics.AuthRequests.WithLabelValues(tc.op, resultLabel(err)).Inc()
	if err != nil {
		s.recordFailure(ctx, tc, audit.LoginFailed, err)
		return nil, err
	}

	logger.Info("session_created", "user_id", tc.userID(), "session_id", tc.session.ID, "device_id", tc.deviceID)
	s.record(ctx, tc, audit.Event{Type: audit.LoginSucceeded})
	return &models.LoginResponse{
		AccessToken:  tc.accessToken,
		RefreshToken: tc.refreshToken,
		CSRFToken:    tc.csrfToken,
		ExpiresAt:    tc.expiresIn,
		TokenType:    models.TokenTypeBearer,
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token and CSRF
// token. The refresh token is not rotated: it stays valid until it expires
// or its session is revoked.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	tc := &tokenContext{op: "refresh", now: s.now(), refreshToken: refreshToken}

	err := run(ctx, tc, []stage{
		{"load_session", StateInit, s.loadSessionByRefreshToken},
		{"resolve_identity", StateIdentityVerified, s.resolveSessionOwner},
		{"issue_access_token", StateAccessTokenIssued, s.issueAccessToken},
		{"issue_csrf_token", StateCsrfTokenIssued, s.issueCSRFToken},
		{"persist_session", StateSessionPersisted, s.persistRedemption},
		{"respond", StateResponded, s.computeExpiry},
	})
	metrics.AuthRequests.WithLabelValues(tc.op, resultLabel(err)).Inc()
	if err != nil {
		s.recordFailure(ctx, tc, audit.RefreshFailed, err)
		return nil, err
	}

	s.record(ctx, tc, audit.Event{Type: audit.RefreshSucceeded})
	return &models.LoginResponse{
		AccessToken: tc.accessToken,
		CSRFToken:   tc.csrfToken,
		ExpiresAt:   tc.expiresIn,
		TokenType:   models.TokenTypeBearer,
	}, nil
}

// Logout revokes the session behind refreshToken and drops it from the
// user's index. Unknown tokens and already revoked sessions are left alone. Store failures are logged and
// never reported to the caller.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	tc := &tokenContext{op: "logout", now: s.now(), refreshToken: refreshToken}
	result := "noop"
	defer func() { metrics.AuthRequests.WithLabelValues(tc.op, result).Inc() }()

	id, err := s.store.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		result = "store_error"
		logger.Warn("logout_resolve_failed", "error", err)
		return
	}
	if id == "" {
		return
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		result = "store_error"
		logger.Warn("logout_load_failed", "session_id", id, "error", err)
		return
	}
	// expired but unrevoked sessions are still revoked so the index is cleaned
	if sess == nil || sess.IsRevoked {
		return
	}
	tc.session = sess
	tc.identity = &models.Identity{ID: sess.UserID}
	tc.deviceID = sess.DeviceID

	sess.IsRevoked = true
	if err := s.store.PutSession(ctx, sess, sess.TTL(tc.now)); err != nil {
		result = "store_error"
		logger.Warn("logout_persist_failed", "session_id", id, "error", err)
		return
	}

	ids, err := s.store.GetUserSessionIDs(ctx, sess.UserID)
	if err != nil {
		result = "store_error"
		logger.Warn("logout_index_read_failed", "user_id", sess.UserID, "error", err)
		return
	}
	if err := s.store.PutUserSessionIDs(ctx, sess.UserID, without(ids, id), s.cfg.RefreshTTL); err != nil {
		result = "store_error"
		logger.Warn("logout_index_write_failed", "user_id", sess.UserID, "error", err)
		return
	}

	result = "success"
	metrics.SessionsRevoked.WithLabelValues("logout").Inc()
	logger.Info("session_revoked", "reason", "logout", "user_id", sess.UserID, "session_id", id)
	s.record(ctx, tc, audit.Event{Type: audit.Logout})
}

// ActiveSessions lists the user's live sessions, oldest first. currentID,
// when set, marks the session the caller is using.
func (s *Service) ActiveSessions(ctx context.Context, userID, currentID string) ([]SessionInfo, error) {
	const op = "auth.ActiveSessions"
	now := s.now()

	ids, err := s.store.GetUserSessionIDs(ctx, userID)
	if err != nil {
		return nil, internal(op, err)
	}
	out := make([]SessionInfo, 0, len(ids))
	for _, id := range ids {
		sess, err := s.store.GetSession(ctx, id)
		if err != nil {
			return nil, internal(op, err)
		}
		if sess == nil || sess.UserID != userID || !sess.Active(now) {
			continue
		}
		out = append(out, SessionInfo{
			ID:         sess.ID,
			DeviceID:   sess.DeviceID,
			CreatedAt:  sess.CreatedAt,
			LastUsedAt: sess.LastUsedAt,
			WasUsed:    sess.WasUsed,
			ExpiresAt:  sess.ExpiresAt,
			Current:    currentID != "" && sess.ID == currentID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// SessionIDForRefreshToken resolves a refresh token without validating the
// session; "" when unknown.
func (s *Service) SessionIDForRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	id, err := s.store.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", internal("auth.SessionIDForRefreshToken", err)
	}
	return id, nil
}

// authenticate stages

func (s *Service) deriveDevice(_ context.Context, tc *tokenContext) error {
	tc.deviceID = DeriveDeviceID(tc.client.UserAgent, tc.client.IP)
	return nil
}

func (s *Service) verifyIdentity(ctx context.Context, tc *tokenContext) error {
	id, err := s.users.Verify(ctx, tc.creds.Email, tc.creds.Password)
	tc.creds.Password = ""
	if err != nil {
		return internal("auth.verifyIdentity", err)
	}
	if id == nil {
		return ErrInvalidCredentials
	}
	tc.identity = id
	return nil
}

// loadActive reads the user's index and the sessions it names, keeping only
// live sessions owned by the user. It reports whether anything was pruned.
func (s *Service) loadActive(ctx context.Context, tc *tokenContext) (bool, error) {
	ids, err := s.store.GetUserSessionIDs(ctx, tc.userID())
	if err != nil {
		return false, err
	}
	active := make([]*sessions.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.store.GetSession(ctx, id)
		if err != nil {
			return false, err
		}
		if sess == nil || sess.UserID != tc.userID() || !sess.Active(tc.now) {
			continue
		}
		active = append(active, sess)
	}
	tc.active = active
	tc.indexLoaded = true
	return len(active) != len(ids), nil
}

func (s *Service) revoke(ctx context.Context, tc *tokenContext, sess *sessions.Session, reason string) error {
	sess.IsRevoked = true
	if err := s.store.PutSession(ctx, sess, sess.TTL(tc.now)); err != nil {
		return err
	}
	metrics.SessionsRevoked.WithLabelValues(reason).Inc()
	logger.Info("session_revoked", "reason", reason, "user_id", sess.UserID, "session_id", sess.ID)
	s.record(ctx, tc, audit.Event{Type: audit.SessionRevoked, SessionID: sess.ID, DeviceID: sess.DeviceID, Reason: reason})
	return nil
}

func (s *Service) revokeDeviceSessions(ctx context.Context, tc *tokenContext) error {
	pruned, err := s.loadActive(ctx, tc)
	if err != nil {
		tc.indexLoaded = false
		return err
	}

	kept := tc.active[:0]
	for _, sess := range tc.active {
		if sess.DeviceID != tc.deviceID {
			kept = append(kept, sess)
			continue
		}
		if err := s.revoke(ctx, tc, sess, "device"); err != nil {
			tc.indexLoaded = false
			return err
		}
		pruned = true
	}
	tc.active = kept

	if !pruned {
		return nil
	}
	return s.store.PutUserSessionIDs(ctx, tc.userID(), tc.activeIDs(), s.cfg.RefreshTTL)
}

func (s *Service) issueAccessToken(_ context.Context, tc *tokenContext) error {
	tok, err := s.signer.Sign(tc.userID())
	if err != nil {
		return internal("auth.issueAccessToken", err)
	}
	tc.accessToken = tok
	return nil
}

func (s *Service) issueRefreshToken(_ context.Context, tc *tokenContext) error {
	tok, err := randomHex()
	if err != nil {
		return internal("auth.issueRefreshToken", err)
	}
	tc.refreshToken = tok
	return nil
}

func (s *Service) issueCSRFToken(_ context.Context, tc *tokenContext) error {
	tok, err := randomHex()
	if err != nil {
		return internal("auth.issueCSRFToken", err)
	}
	tc.csrfToken = tok
	return nil
}

// evictOldest makes room for the new session. Normally that is one session;
// an index inflated by concurrent logins is brought back under the limit.
func (s *Service) evictOldest(ctx context.Context, tc *tokenContext) error {
	if !tc.indexLoaded {
		if _, err := s.loadActive(ctx, tc); err != nil {
			tc.indexLoaded = false
			return err
		}
	}
	for len(tc.active) >= s.cfg.MaxSessionsPerUser {
		oldest := 0
		for i, sess := range tc.active {
			if sess.CreatedAt < tc.active[oldest].CreatedAt {
				oldest = i
			}
		}
		if err := s.revoke(ctx, tc, tc.active[oldest], "evicted"); err != nil {
			return err
		}
		tc.active = append(tc.active[:oldest], tc.active[oldest+1:]...)
	}
	return nil
}

func (s *Service) persistNewSession(ctx context.Context, tc *tokenContext) error {
	const op = "auth.persistNewSession"

	ids := tc.activeIDs()
	if !tc.indexLoaded {
		var err error
		if ids, err = s.store.GetUserSessionIDs(ctx, tc.userID()); err != nil {
			return internal(op, err)
		}
	}

	now := tc.now.UnixMilli()
	sess := &sessions.Session{
		ID:           uuid.NewString(),
		UserID:       tc.userID(),
		DeviceID:     tc.deviceID,
		RefreshToken: tc.refreshToken,
		CSRFToken:    tc.csrfToken,
		CreatedAt:    now,
		LastUsedAt:   now,
		ExpiresAt:    tc.now.Add(s.cfg.RefreshTTL).UnixMilli(),
	}
	if err := s.store.PutSession(ctx, sess, s.cfg.RefreshTTL); err != nil {
		return internal(op, err)
	}
	if err := s.store.MapRefreshToken(ctx, sess.RefreshToken, sess.ID, s.cfg.RefreshTTL); err != nil {
		return internal(op, err)
	}
	if err := s.store.PutUserSessionIDs(ctx, sess.UserID, append(ids, sess.ID), s.cfg.RefreshTTL); err != nil {
		return internal(op, err)
	}
	tc.session = sess
	return nil
}

// computeExpiry reads the expiry back from the issued token so the client
// sees exactly what verification will enforce.
func (s *Service) computeExpiry(_ context.Context, tc *tokenContext) error {
	claims, err := s.signer.Decode(tc.accessToken)
	if err != nil {
		return internal("auth.computeExpiry", err)
	}
	tc.expiresIn = claims.ExpiresIn(tc.now)
	return nil
}

// refresh stages

func (s *Service) loadSessionByRefreshToken(ctx context.Context, tc *tokenContext) error {
	const op = "auth.loadSessionByRefreshToken"

	id, err := s.store.ResolveRefreshToken(ctx, tc.refreshToken)
	if err != nil {
		return internal(op, err)
	}
	if id == "" {
		return ErrInvalidRefreshToken
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return internal(op, err)
	}
	if sess == nil || !sess.Active(tc.now) {
		return ErrSessionExpiredOrRevoked
	}
	if sess.RefreshToken != tc.refreshToken {
		return ErrInvalidRefreshToken
	}
	tc.session = sess
	tc.deviceID = sess.DeviceID
	return nil
}

func (s *Service) resolveSessionOwner(ctx context.Context, tc *tokenContext) error {
	id, err := s.users.FindByID(ctx, tc.session.UserID)
	if err != nil {
		return internal("auth.resolveSessionOwner", err)
	}
	if id == nil {
		logger.Error("session_owner_missing", "user_id", tc.session.UserID, "session_id", tc.session.ID)
		return ErrUserNotFound
	}
	tc.identity = id
	return nil
}

func (s *Service) persistRedemption(ctx context.Context, tc *tokenContext) error {
	sess := tc.session
	sess.LastUsedAt = tc.now.UnixMilli()
	sess.WasUsed = true
	sess.CSRFToken = tc.csrfToken
	if err := s.store.PutSession(ctx, sess, sess.TTL(tc.now)); err != nil {
		return internal("auth.persistRedemption", err)
	}
	return nil
}

// audit helpers

func (s *Service) record(ctx context.Context, tc *tokenContext, e audit.Event) {
	e.UserID = tc.userID()
	if e.SessionID == "" && tc.session != nil {
		e.SessionID = tc.session.ID
	}
	if e.DeviceID == "" {
		e.DeviceID = tc.deviceID
	}
	e.IP = tc.client.IP
	e.UserAgent = tc.client.UserAgent
	e.At = tc.now.UTC()
	s.audit.Record(ctx, e)
}

func (s *Service) recordFailure(ctx context.Context, tc *tokenContext, typ string, err error) {
	if resultLabel(err) == "internal_error" {
		logger.Error(tc.op+"_failed", "user_id", tc.userID(), "state", tc.state.String(), "error", err)
	}
	s.record(ctx, tc, audit.Event{Type: typ, Reason: resultLabel(err)})
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
