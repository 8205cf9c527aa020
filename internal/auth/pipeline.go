package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/peterphenikaa/zen8labs-auth/internal/models"
	"github.com/peterphenikaa/zen8labs-auth/internal/sessions"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
	"github.com/peterphenikaa/zen8labs-auth/pkg/metrics"
)

// State is the progress of one authenticate or refresh flow.
type State int

const (
	StateInit State = iota
	StateIdentityVerified
	StatePriorSessionsRevoked
	StateAccessTokenIssued
	StateRefreshTokenIssued
	StateCsrfTokenIssued
	StateSessionPersisted
	StateResponded
)

var stateNames = [...]string{
	"init",
	"identity_verified",
	"prior_sessions_revoked",
	"access_token_issued",
	"refresh_token_issued",
	"csrf_token_issued",
	"session_persisted",
	"responded",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// tokenContext accumulates everything one flow produces. It lives for a
// single call and is never persisted.
type tokenContext struct {
	op    string
	now   time.Time
	state State

	client   Client
	creds    Credentials
	deviceID string
	identity *models.Identity

	// active holds the user's live sessions once the index has been read;
	// indexLoaded distinguishes "read and empty" from "never read".
	active      []*sessions.Session
	indexLoaded bool

	session      *sessions.Session
	accessToken  string
	refreshToken string
	csrfToken    string
	expiresIn    int64
}

func (tc *tokenContext) userID() string {
	if tc.identity == nil {
		return ""
	}
	return tc.identity.ID
}

func (tc *tokenContext) activeIDs() []string {
	ids := make([]string, 0, len(tc.active))
	for _, s := range tc.active {
		ids = append(ids, s.ID)
	}
	return ids
}

type stageFunc func(ctx context.Context, tc *tokenContext) error

// stage moves the context to state when fn succeeds.
type stage struct {
	name  string
	state State
	fn    stageFunc
}

// run executes stages in order and stops at the first error.
func run(ctx context.Context, tc *tokenContext, stages []stage) error {
	for _, st := range stages {
		if err := st.fn(ctx, tc); err != nil {
			logger.Debug("pipeline_halted", "op", tc.op, "stage", st.name, "state", tc.state.String(), "error", err)
			return err
		}
		tc.state = st.state
	}
	return nil
}

// bestEffort turns a stage's failure into a log line and a counter.
func bestEffort(step string, fn stageFunc) stageFunc {
	return func(ctx context.Context, tc *tokenContext) error {
		if err := fn(ctx, tc); err != nil {
			metrics.BestEffortFailures.WithLabelValues(step).Inc()
			logger.Warn(step+"_failed", "op", tc.op, "user_id", tc.userID(), "device_id", tc.deviceID, "error", err)
		}
		return nil
	}
}

const randomTokenBytes = 32

func randomHex() (string, error) {
	b := make([]byte, randomTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
