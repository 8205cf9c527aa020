// Package audit keeps a best-effort trail of authentication events.
// Failures to record never affect the request being audited.
package audit

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	LoginSucceeded   = "login_succeeded"
	LoginFailed      = "login_failed"
	RefreshSucceeded = "refresh_succeeded"
	RefreshFailed    = "refresh_failed"
	Logout           = "logout"
	SessionRevoked   = "session_revoked"
)

// Event is one audit record.
type Event struct {
	Type      string    `bson:"type" json:"type"`
	UserID    string    `bson:"userId,omitempty" json:"userId,omitempty"`
	SessionID string    `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	DeviceID  string    `bson:"deviceId,omitempty" json:"deviceId,omitempty"`
	IP        string    `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string    `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At        time.Time `bson:"at" json:"at"`
}

// Recorder stores events and lists a user's recent ones, newest first.
type Recorder interface {
	Record(ctx context.Context, e Event)
	Recent(ctx context.Context, userID string, limit int) ([]Event, error)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}

func (NopRecorder) Recent(context.Context, string, int) ([]Event, error) { return nil, nil }

// MemoryRecorder keeps events in process memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (m *MemoryRecorder) Record(_ context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

func (m *MemoryRecorder) Recent(_ context.Context, userID string, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].UserID != userID {
			continue
		}
		out = append(out, m.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Events returns a copy of everything recorded, oldest first.
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
