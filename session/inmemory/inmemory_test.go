package inmemory

import (
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/searchchat/session"
)

func TestEnsureSessionCreatesAndReuses(t *testing.T) {
	store := NewInMemorySessionStore()
	s1, err := store.EnsureSession("", time.Hour)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if s1.ID() == "" {
		t.Fatalf("expected generated id")
	}
	s2, _ := store.EnsureSession(s1.ID(), time.Hour)
	if s2 != s1 {
		t.Fatalf("expected same session for known id")
	}
	s3, _ := store.EnsureSession("unknown", time.Hour)
	if s3 == s1 || s3.ID() == "unknown" {
		t.Fatalf("unknown ids get a fresh generated session")
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	store := NewInMemorySessionStore()
	s, _ := store.EnsureSession("", time.Hour)
	got, err := store.GetSession(s.ID())
	if err != nil || got != s {
		t.Fatalf("GetSession = %v, %v", got, err)
	}
	if !store.DeleteSession(s.ID()) {
		t.Fatalf("expected delete to succeed")
	}
	if store.DeleteSession(s.ID()) {
		t.Fatalf("second delete should report false")
	}
	if _, err := store.GetSession(s.ID()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSweepRemovesExpiredIdleSessions(t *testing.T) {
	store := NewInMemorySessionStore()
	idle, _ := store.EnsureSession("", time.Minute)
	busy, _ := store.EnsureSession("", time.Minute)
	forever, _ := store.EnsureSession("", 0)
	_ = busy.Begin("still streaming")

	removed := store.Sweep(time.Now().Add(time.Hour))
	if removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if _, err := store.GetSession(idle.ID()); err == nil {
		t.Fatalf("idle expired session should be gone")
	}
	for _, s := range []*session.Session{busy, forever} {
		if _, err := store.GetSession(s.ID()); err != nil {
			t.Fatalf("session %s should survive: %v", s.ID(), err)
		}
	}
}
