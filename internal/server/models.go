package server

import (
	"time"

	"github.com/mohammad-safakhou/searchchat/internal/chat"
	"github.com/mohammad-safakhou/searchchat/internal/helpers"
	"github.com/mohammad-safakhou/searchchat/session"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// IDResponse is a generic id response wrapper.
type IDResponse struct {
	ID string `json:"id"`
}

// MessageRequest submits one prompt to a session. Model and Search fall back
// to the configured defaults when omitted.
type MessageRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Search *bool  `json:"search,omitempty"`
}

// CitationResponse is a citation with its host for display. The label is
// reduced to plain text.
type CitationResponse struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
	Host  string `json:"host,omitempty"`
}

// SessionResponse is the transcript view of a session.
type SessionResponse struct {
	ID        string             `json:"id"`
	Entries   []session.Entry    `json:"entries"`
	LastText  string             `json:"last_text"`
	Citations []CitationResponse `json:"citations"`
	InFlight  bool               `json:"in_flight"`
	Tokens    int                `json:"tokens"` // transcript size estimate
}

// ReplyResponse is sent as the final "done" stream event, or as the body when
// streaming is disabled.
type ReplyResponse struct {
	Text      string             `json:"text"`
	Citations []CitationResponse `json:"citations"`
	Attempt   chat.Attempt       `json:"attempt"`
	Step      int                `json:"step"`
}

// ModelsResponse lists selectable models and defaults.
type ModelsResponse struct {
	Models        []string `json:"models"`
	Default       string   `json:"default"`
	Fallback      string   `json:"fallback"`
	SearchEnabled bool     `json:"search_enabled"`
}

// FragmentEvent is the payload of delta, notice and reset stream events.
type FragmentEvent struct {
	Text string `json:"text,omitempty"`
}

// HealthResponse reports liveness and session count.
type HealthResponse struct {
	Status   string    `json:"status"`
	Sessions int       `json:"sessions"`
	Time     time.Time `json:"time"`
}

func toCitations(in []helpers.Citation) []CitationResponse {
	out := make([]CitationResponse, 0, len(in))
	for _, c := range in {
		out = append(out, CitationResponse{Label: helpers.PlainLabel(c.Label), URL: c.URL, Host: c.Host()})
	}
	return out
}
