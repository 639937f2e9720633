package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mohammad-safakhou/searchchat/internal/helpers"
	"github.com/mohammad-safakhou/searchchat/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session already has a request in flight")
	ErrEmptyPrompt     = errors.New("prompt is empty")
)

// Store interface for chat session management
type Store interface {
	EnsureSession(id string, ttl time.Duration) (*Session, error)
	GetSession(id string) (*Session, error)
	DeleteSession(id string) bool
	Sweep(now time.Time) int
	Len() int
}

// Entry is one transcript item.
type Entry struct {
	Role models.Role `json:"role"`
	Text string      `json:"text"`
	At   time.Time   `json:"at"`
}

// Session owns the transcript and the last full assistant text of one chat.
// At most one request may be in flight per session.
type Session struct {
	id        string
	mu        sync.RWMutex
	expiresAt time.Time
	entries   []Entry
	lastText  string
	inFlight  bool
}

// New creates an empty session that expires after ttl (never when ttl <= 0).
func New(id string, ttl time.Duration) *Session {
	s := &Session{id: id}
	s.Expire(ttl)
	return s
}

func (s *Session) ID() string { return s.id }

// Expire pushes the expiry out to now+ttl.
func (s *Session) Expire(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl <= 0 {
		s.expiresAt = time.Time{}
		return
	}
	s.expiresAt = time.Now().Add(ttl)
}

// Expired reports whether the session is past its expiry and idle.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.inFlight && !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// Begin records the user prompt and marks the session in flight.
func (s *Session) Begin(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSessionBusy
	}
	s.inFlight = true
	s.entries = append(s.entries, Entry{Role: models.RoleUser, Text: prompt, At: time.Now().UTC()})
	return nil
}

// Complete stores text as the last full text and appends it as the assistant reply.
func (s *Session) Complete(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastText = text
	s.entries = append(s.entries, Entry{Role: models.RoleAssistant, Text: text, At: time.Now().UTC()})
	s.inFlight = false
}

// Abort ends the in-flight request without an assistant reply.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// InFlight reports whether a request is running.
func (s *Session) InFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}

// Entries returns a copy of the transcript.
func (s *Session) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// History returns the transcript as model input messages.
func (s *Session) History() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, models.Message{Role: e.Role, Content: e.Text})
	}
	return out
}

// LastText is the full text of the most recent completed reply.
func (s *Session) LastText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastText
}

// Citations extracts the sources of the last reply. They are never stored.
func (s *Session) Citations() []helpers.Citation {
	return helpers.ExtractCitations(s.LastText())
}
