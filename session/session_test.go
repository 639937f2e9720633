package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/searchchat/models"
)

func TestSessionTurnLifecycle(t *testing.T) {
	s := New("s1", time.Hour)
	if err := s.Begin("what is new in Go?"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !s.InFlight() {
		t.Fatalf("expected in-flight after Begin")
	}
	if err := s.Begin("second"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	text := "Go 1.23 added iterators.\n\n- [Go Blog](https://go.dev/blog)"
	s.Complete(text)
	if s.InFlight() {
		t.Fatalf("expected idle after Complete")
	}
	entries := s.Entries()
	if len(entries) != 2 || entries[0].Role != models.RoleUser || entries[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected transcript: %#v", entries)
	}
	if entries[1].Text != text || s.LastText() != text {
		t.Fatalf("assistant text not stored exactly")
	}
	cites := s.Citations()
	if len(cites) != 1 || cites[0].URL != "https://go.dev/blog" {
		t.Fatalf("unexpected citations: %#v", cites)
	}
}

func TestSessionAbortKeepsUserEntryOnly(t *testing.T) {
	s := New("s1", 0)
	s.Complete("earlier answer")
	if err := s.Begin("question"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	s.Abort()
	entries := s.Entries()
	if len(entries) != 2 || entries[1].Role != models.RoleUser {
		t.Fatalf("unexpected transcript: %#v", entries)
	}
	if s.LastText() != "earlier answer" {
		t.Fatalf("abort must not touch last text, got %q", s.LastText())
	}
	if err := s.Begin("retry"); err != nil {
		t.Fatalf("Begin after Abort: %v", err)
	}
}

func TestSessionRejectsEmptyPrompt(t *testing.T) {
	s := New("s1", 0)
	if err := s.Begin("   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if len(s.Entries()) != 0 || s.InFlight() {
		t.Fatalf("empty prompt must not change the session")
	}
}

func TestSessionEntriesIsCopy(t *testing.T) {
	s := New("s1", 0)
	_ = s.Begin("q")
	entries := s.Entries()
	entries[0].Text = "mutated"
	if s.Entries()[0].Text != "q" {
		t.Fatalf("Entries must return a copy")
	}
}

func TestSessionHistory(t *testing.T) {
	s := New("s1", 0)
	_ = s.Begin("q1")
	s.Complete("a1")
	hist := s.History()
	want := []models.Message{{Role: models.RoleUser, Content: "q1"}, {Role: models.RoleAssistant, Content: "a1"}}
	if len(hist) != 2 || hist[0] != want[0] || hist[1] != want[1] {
		t.Fatalf("History() = %#v", hist)
	}
}

func TestSessionExpiry(t *testing.T) {
	s := New("s1", time.Minute)
	now := time.Now()
	if s.Expired(now) {
		t.Fatalf("fresh session should not be expired")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("expected expiry after ttl")
	}
	_ = s.Begin("busy")
	if s.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("in-flight sessions never expire")
	}
	if New("s2", 0).Expired(now.Add(24 * time.Hour)) {
		t.Fatalf("ttl <= 0 means no expiry")
	}
}

func TestSessionEstimateTokens(t *testing.T) {
	s := New("s1", 0)
	if got := s.EstimateTokens(); got != 0 {
		t.Fatalf("empty transcript = %d tokens", got)
	}
	_ = s.Begin("hello world, how are you today?")
	if got := s.EstimateTokens(); got <= 0 {
		t.Fatalf("expected positive token estimate, got %d", got)
	}
}

func TestSessionHistoryWithinBudget(t *testing.T) {
	s := New("s1", 0)
	long := strings.Repeat("older context that should be trimmed first ", 40)
	_ = s.Begin(long)
	s.Complete("a1")
	_ = s.Begin("q2")
	s.Complete("a2")

	if got := s.HistoryWithin(0); len(got) != 4 {
		t.Fatalf("unbounded history = %d messages", len(got))
	}
	got := s.HistoryWithin(20)
	if len(got) != 3 || got[0].Content != "a1" || got[2].Content != "a2" {
		t.Fatalf("HistoryWithin(20) = %#v", got)
	}
	if got := s.HistoryWithin(countTokens("a2")); len(got) != 1 || got[0].Content != "a2" {
		t.Fatalf("HistoryWithin(a2) = %#v", got)
	}
}

func TestSessionHistoryWithinKeepsNewestSuffix(t *testing.T) {
	s := New("s1", 0)
	_ = s.Begin("q1")
	s.Complete(strings.Repeat("big answer ", 100))
	_ = s.Begin("q2")
	s.Complete("a2")

	// the oversized reply stops the walk, so q1 is dropped even though it fits
	got := s.HistoryWithin(20)
	if len(got) != 2 || got[0].Content != "q2" {
		t.Fatalf("HistoryWithin(20) = %#v", got)
	}
}
