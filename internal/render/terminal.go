package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mohammad-safakhou/searchchat/internal/chat"
	"github.com/mohammad-safakhou/searchchat/internal/helpers"
	"github.com/mohammad-safakhou/searchchat/models"
	"github.com/mohammad-safakhou/searchchat/session"
)

var (
	userRoleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("28"))

	assistantRoleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("208"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	sourcesHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))
)

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Terminal writes a conversation to a line-oriented output. Styling is only
// applied when color is set.
type Terminal struct {
	w     io.Writer
	color bool
}

// NewTerminal returns a terminal writing to w.
func NewTerminal(w io.Writer, color bool) *Terminal {
	return &Terminal{w: w, color: color}
}

// Stdout returns a terminal on os.Stdout, colored when it is a tty.
func Stdout() *Terminal {
	return NewTerminal(os.Stdout, IsInteractive(os.Stdout))
}

func (t *Terminal) paint(st lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return st.Render(s)
}

// Prompt is the input prompt.
func (t *Terminal) Prompt() {
	fmt.Fprint(t.w, t.paint(userRoleStyle, " you ")+" ")
}

// BeginReply writes the assistant header for model.
func (t *Terminal) BeginReply(model string, search bool) {
	tag := model
	if search {
		tag += " + web"
	}
	fmt.Fprintln(t.w, t.paint(assistantRoleStyle, " assistant ")+" "+t.paint(dimStyle, tag))
}

// Fragment writes one streamed fragment. Text is written as-is; a reset marks
// the text above it as discarded.
func (t *Terminal) Fragment(f chat.Fragment) {
	switch f.Kind {
	case chat.KindText:
		fmt.Fprint(t.w, f.Text)
	case chat.KindReset:
		fmt.Fprintln(t.w)
		fmt.Fprintln(t.w, t.paint(dimStyle, "[partial response discarded]"))
	case chat.KindNotice:
		fmt.Fprintln(t.w, t.paint(noticeStyle, "… "+f.Text))
	}
}

// EndReply finishes a streamed reply and writes its sources.
func (t *Terminal) EndReply(r chat.Reply) {
	if !strings.HasSuffix(r.Text, "\n") {
		fmt.Fprintln(t.w)
	}
	if r.Step > 1 {
		fmt.Fprintln(t.w, t.paint(dimStyle, fmt.Sprintf("(answered by %s)", r.Attempt)))
	}
	t.Sources(r.Citations)
}

// Sources writes a citation list, or a note when it is empty.
func (t *Terminal) Sources(cs []helpers.Citation) {
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, t.paint(sourcesHeaderStyle, "Sources"))
	lines := helpers.FormatCitations(cs)
	if len(lines) == 0 {
		fmt.Fprintln(t.w, t.paint(dimStyle, "No sources detected."))
		return
	}
	for _, l := range lines {
		fmt.Fprintln(t.w, l)
	}
}

// History writes a session transcript.
func (t *Terminal) History(entries []session.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(t.w, t.paint(dimStyle, "No messages yet."))
		return
	}
	for _, e := range entries {
		label := t.paint(userRoleStyle, " you ")
		if e.Role == models.RoleAssistant {
			label = t.paint(assistantRoleStyle, " assistant ")
		}
		fmt.Fprintln(t.w, label+" "+t.paint(dimStyle, e.At.Format("15:04:05")))
		fmt.Fprintln(t.w, strings.TrimRight(e.Text, "\n"))
	}
}

func (t *Terminal) Info(format string, args ...any) {
	fmt.Fprintln(t.w, t.paint(dimStyle, fmt.Sprintf(format, args...)))
}

func (t *Terminal) Error(err error) {
	fmt.Fprintln(t.w, t.paint(errorStyle, "error: ")+err.Error())
}
