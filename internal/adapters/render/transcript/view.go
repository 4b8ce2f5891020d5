package transcript

import (
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Topic     string
	SessionID string
	// Width wraps turn text and sizes the rule under each speaker; zero
	// leaves lines unwrapped and drops the rule.
	Width int
	// ShowTimes prints the commit time next to each speaker.
	ShowTimes bool
}

// Renderer lays out a conversation either all at once or one turn at a time,
// so a transcript printed while it is being generated looks the same as one
// printed afterwards.
type Renderer struct {
	opts   RenderOptions
	styles styles
}

func NewRenderer(opts RenderOptions) Renderer {
	return Renderer{opts: opts, styles: newStyles()}
}

// Render lays out a shared transcript, one block per turn, for printing.
func Render(turns domain.Transcript, opts RenderOptions) string {
	return NewRenderer(opts).Transcript(turns)
}

// WithWidth returns a copy of r that wraps at width.
func (r Renderer) WithWidth(width int) Renderer {
	r.opts.Width = max(width, 0)
	return r
}

// Header is the title block: topic and, when known, the session id.
func (r Renderer) Header() string {
	lines := []string{r.styles.title.Render(titleLine(r.opts.Topic))}
	if r.opts.SessionID != "" {
		lines = append(lines, r.styles.header.Render("session: "+r.opts.SessionID))
	}
	return strings.Join(lines, "\n")
}

func (r Renderer) Transcript(turns domain.Transcript) string {
	lines := []string{r.Header(), r.styles.header.Render(fmt.Sprintf("turns: %d", len(turns)))}

	if len(turns) == 0 {
		lines = append(lines, r.styles.empty.Render("Nobody has spoken yet."))
		return strings.Join(lines, "\n")
	}

	for _, turn := range turns {
		lines = append(lines, r.Turn(turn))
	}

	return strings.Join(lines, "\n")
}

// Turn renders one turn as a block separated from the previous one by a
// blank line.
func (r Renderer) Turn(turn domain.Turn) string {
	header := r.styles.speaker.Render(speakerLabel(turn.Speaker))
	if r.opts.ShowTimes && !turn.At.IsZero() {
		header += " " + r.styles.meta.Render(turn.At.Format("15:04:05"))
	}
	if rule := r.opts.Width - lipgloss.Width(header) - 1; r.opts.Width > 0 && rule > 0 {
		header += " " + r.styles.rule.Render(strings.Repeat("─", rule))
	}

	text := r.styles.text
	if r.opts.Width > 4 {
		text = text.Width(r.opts.Width)
	}

	return r.styles.section.Render(lipgloss.JoinVertical(lipgloss.Left, header, text.Render(strings.TrimSpace(turn.Text))))
}

func titleLine(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "Conversation"
	}
	return "Conversation: " + topic
}

func speakerLabel(speaker string) string {
	if strings.TrimSpace(speaker) == "" {
		return "Unknown"
	}
	return speaker
}
