package chat

import (
	"iter"
	"strings"
)

// FragmentKind tells a consumer what to do with a fragment.
type FragmentKind string

const (
	// KindText is a piece of the response text, in arrival order.
	KindText FragmentKind = "text"
	// KindReset discards all text received so far; the attempt that produced it was rejected.
	KindReset FragmentKind = "reset"
	// KindNotice is an advisory message about a fallback step. It is not response text.
	KindNotice FragmentKind = "notice"
)

// Fragment is one element of a response stream.
type Fragment struct {
	Kind FragmentKind `json:"kind"`
	Text string       `json:"text,omitempty"`
}

// ErrorMarker is the inline text shown in place of further content when the
// remote stream reports an error.
func ErrorMarker(msg string) string {
	return "\n\n**[error]** " + msg + "\n"
}

// Collector rebuilds response text from fragments.
type Collector struct {
	b strings.Builder
}

// Add applies one fragment.
func (c *Collector) Add(f Fragment) {
	switch f.Kind {
	case KindText:
		c.b.WriteString(f.Text)
	case KindReset:
		c.b.Reset()
	}
}

func (c *Collector) String() string { return c.b.String() }

// Accumulate drains seq and returns the response text it describes.
func Accumulate(seq iter.Seq[Fragment]) string {
	var c Collector
	for f := range seq {
		c.Add(f)
	}
	return c.String()
}
