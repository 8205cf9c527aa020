package audit

import (
	"context"
	"testing"
)

func TestMemoryRecorder_RecentNewestFirst(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()
	r.Record(ctx, Event{Type: LoginSucceeded, UserID: "u1"})
	r.Record(ctx, Event{Type: LoginSucceeded, UserID: "u2"})
	r.Record(ctx, Event{Type: RefreshSucceeded, UserID: "u1"})
	r.Record(ctx, Event{Type: Logout, UserID: "u1"})

	got, err := r.Recent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != Logout || got[1].Type != RefreshSucceeded {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
	if len(r.Events()) != 4 {
		t.Fatalf("expected 4 events total")
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	r.Record(context.Background(), Event{Type: Logout})
	got, err := r.Recent(context.Background(), "u1", 10)
	if err != nil || got != nil {
		t.Fatalf("expected nothing, got %v err=%v", got, err)
	}
}
