package models

// Role tags a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged input item sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Tool enables a server-side tool for a request.
type Tool struct {
	Type string `json:"type"`
}

// WebSearchTool is the hosted web search tool.
var WebSearchTool = Tool{Type: "web_search"}

// Reasoning carries the reasoning-effort hint.
type Reasoning struct {
	Effort string `json:"effort,omitempty"`
}

// ReasoningHigh is the maximum effort hint.
const ReasoningHigh = "high"

// StreamRequest is a single streaming request against the remote API.
type StreamRequest struct {
	Model     string     `json:"model"`
	Input     []Message  `json:"input"`
	Tools     []Tool     `json:"tools,omitempty"`
	Reasoning *Reasoning `json:"reasoning,omitempty"`
	Stream    bool       `json:"stream"`
}

// EventType classifies a parsed stream event.
type EventType string

const (
	EventTextDelta EventType = "text_delta"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// StreamEvent is one event of a streaming response.
type StreamEvent struct {
	Type  EventType
	Delta string // for EventTextDelta
	Error string // for EventError
}
