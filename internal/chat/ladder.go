package chat

import "fmt"

// Attempt is one request configuration tried against the remote API.
type Attempt struct {
	Model        string `json:"model"`
	UseTool      bool   `json:"use_tool"`
	UseReasoning bool   `json:"use_reasoning"`
}

func (a Attempt) String() string {
	return fmt.Sprintf("model=%s tool=%t reasoning=%t", a.Model, a.UseTool, a.UseReasoning)
}

// Ladder returns the attempts tried in order, each less demanding than the last:
// full features, no reasoning hint, no search tool, then the fallback model.
// With search disabled the third step repeats the second; it still runs.
func Ladder(preferred, fallback string, search bool) []Attempt {
	return []Attempt{
		{Model: preferred, UseTool: search, UseReasoning: true},
		{Model: preferred, UseTool: search},
		{Model: preferred},
		{Model: fallback, UseTool: true},
	}
}

// fallbackNotice describes the step from a rejected attempt to the next one.
func fallbackNotice(prev, next Attempt) string {
	switch {
	case prev.Model != next.Model:
		return fmt.Sprintf("%s rejected the request; falling back to %s.", prev.Model, next.Model)
	case prev.UseReasoning && !next.UseReasoning:
		return fmt.Sprintf("%s does not accept the reasoning hint; retrying without it.", prev.Model)
	case prev.UseTool && !next.UseTool:
		return fmt.Sprintf("%s does not accept web search; retrying without it.", prev.Model)
	default:
		return fmt.Sprintf("%s rejected the request; retrying.", prev.Model)
	}
}
