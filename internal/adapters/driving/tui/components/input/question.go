// Package input provides the question input for the chat.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/styles"
)

// maxQuestionLen bounds a single question.
const maxQuestionLen = 1000

// QuestionInput wraps a bubbles textinput for typing questions.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQuestionInput creates a focused question input.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "Ask about products, sales, customers or reviews..."
	ti.CharLimit = maxQuestionLen
	ti.Width = 60
	ti.Focus()

	return &QuestionInput{textinput: ti, styles: s, width: 64}
}

// Init starts the cursor blinking.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the boxed input.
func (q *QuestionInput) View() string {
	return q.styles.InputField.Width(q.width - 2).Render(q.textinput.View())
}

// Submit returns the trimmed question and clears the input. It returns
// "" and keeps the text when the input is blank.
func (q *QuestionInput) Submit() string {
	question := strings.TrimSpace(q.textinput.Value())
	if question == "" {
		return ""
	}
	q.textinput.Reset()
	return question
}

// Value returns the current input value.
func (q *QuestionInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the outer width, border included.
func (q *QuestionInput) SetWidth(width int) {
	q.width = max(width, 24)
	// border, padding and prompt
	q.textinput.Width = q.width - 8
}

// Width returns the outer width.
func (q *QuestionInput) Width() int {
	return q.width
}
