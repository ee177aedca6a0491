// Package transcript renders the question and answer history in a
// scrollable viewport.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/styles"
)

// Role identifies who produced a turn.
type Role int

const (
	// RoleUser is a question.
	RoleUser Role = iota
	// RoleAssistant is an answer.
	RoleAssistant
	// RoleError is a failed answer.
	RoleError
)

// Turn is one entry of the conversation.
type Turn struct {
	Role Role
	Text string

	// ContextDocs is shown under assistant turns when positive.
	ContextDocs int
}

// Transcript is a scrollable conversation.
type Transcript struct {
	viewport viewport.Model
	styles   *styles.Styles
	turns    []Turn
	empty    string
}

// New creates an empty transcript. empty is shown until the first turn.
func New(s *styles.Styles, empty string) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		viewport: viewport.New(76, 10),
		styles:   s,
		empty:    empty,
	}
	t.refresh()
	return t
}

// Update forwards scrolling messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the boxed transcript.
func (t *Transcript) View() string {
	return t.styles.Transcript.Render(t.viewport.View())
}

// Append adds a turn and scrolls to the bottom.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
	t.refresh()
	t.viewport.GotoBottom()
}

// Turns returns a copy of the conversation.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Clear removes every turn.
func (t *Transcript) Clear() {
	t.turns = nil
	t.refresh()
	t.viewport.GotoTop()
}

// SetEmpty changes the text shown while the transcript is empty.
func (t *Transcript) SetEmpty(text string) {
	t.empty = text
	t.refresh()
}

// SetSize sets the outer size, border included.
func (t *Transcript) SetSize(width, height int) {
	frameW, frameH := t.styles.Transcript.GetFrameSize()
	t.viewport.Width = max(width-frameW, 10)
	t.viewport.Height = max(height-frameH, 1)
	t.refresh()
}

// PageUp scrolls up one page.
func (t *Transcript) PageUp() {
	t.viewport.ViewUp()
}

// PageDown scrolls down one page.
func (t *Transcript) PageDown() {
	t.viewport.ViewDown()
}

// AtBottom reports whether the last line is visible.
func (t *Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
}

func (t *Transcript) render() string {
	if len(t.turns) == 0 {
		return t.styles.Muted.Render(t.empty)
	}

	wrap := lipgloss.NewStyle().Width(t.viewport.Width - 2)
	blocks := make([]string, 0, len(t.turns))
	for _, turn := range t.turns {
		switch turn.Role {
		case RoleUser:
			blocks = append(blocks, t.styles.Question.Render(wrap.Render("You: "+turn.Text)))
		case RoleAssistant:
			block := t.styles.Answer.Render(wrap.Render(turn.Text))
			if turn.ContextDocs > 0 {
				block += "\n" + t.styles.Meta.Render(fmt.Sprintf("from %d documents", turn.ContextDocs))
			}
			blocks = append(blocks, block)
		case RoleError:
			blocks = append(blocks, t.styles.Error.Render(wrap.Render("Error: "+turn.Text)))
		}
	}
	return strings.Join(blocks, "\n\n")
}
