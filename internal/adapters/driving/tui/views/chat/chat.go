// Package chat provides the question and answer view.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

const emptyTranscript = "Ask a question about the warehouse, e.g. \"Which products sold best last quarter?\""

const emptyIndex = "The index is empty. Run 'quarry index' to load the warehouse, then ask away."

// View is the chat screen: a header, the transcript, the question input
// and the status bar.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	query      driving.QueryService
	header     string
	input      *input.QuestionInput
	transcript *transcript.Transcript
	status     *status.Bar

	// pending is set while a question is being answered. Only one
	// question is in flight at a time.
	pending bool

	width  int
	height int
}

// NewView creates the chat view. header is the title line.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService, header string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	v := &View{
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		query:      query,
		header:     header,
		input:      input.NewQuestionInput(s),
		transcript: transcript.New(s, emptyTranscript),
		status:     status.NewBar(s, km),
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context passed to the query service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor and loads the index statistics.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadStats())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AnswerReceived:
		v.pending = false
		if msg.Err != nil {
			v.transcript.Append(transcript.Turn{Role: transcript.RoleError, Text: msg.Err.Error()})
			v.status.SetError(msg.Err.Error())
			return v, nil
		}
		v.transcript.Append(transcript.Turn{
			Role:        transcript.RoleAssistant,
			Text:        msg.Answer,
			ContextDocs: msg.ContextDocs,
		})
		v.status.Clear()
		return v, nil

	case messages.StatsLoaded:
		v.status.SetStats(msg.Stats)
		if msg.Stats.CountAvailable && msg.Stats.DocumentCount == 0 {
			v.transcript.SetEmpty(emptyIndex)
		}
		return v, nil

	case spinner.TickMsg:
		v.status, cmd = v.status.Update(msg)
		return v, cmd

	case tea.MouseMsg:
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Send):
		return v, v.submit()

	case key.Matches(msg, v.keymap.ScrollUp):
		v.transcript.PageUp()
		return v, nil

	case key.Matches(msg, v.keymap.ScrollDown):
		v.transcript.PageDown()
		return v, nil

	case key.Matches(msg, v.keymap.Clear):
		if !v.pending {
			v.transcript.Clear()
			v.status.Clear()
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	if v.pending {
		return nil
	}
	question := v.input.Submit()
	if question == "" {
		return nil
	}

	v.pending = true
	v.transcript.Append(transcript.Turn{Role: transcript.RoleUser, Text: question})
	return tea.Batch(v.status.StartThinking(), v.ask(question))
}

func (v *View) ask(question string) tea.Cmd {
	ctx := v.ctx
	query := v.query
	return func() tea.Msg {
		answer, err := query.Ask(ctx, question)
		if err != nil {
			return messages.AnswerReceived{Question: question, Err: err}
		}
		return messages.AnswerReceived{
			Question:    question,
			Answer:      answer.Answer,
			ContextDocs: answer.ContextDocs,
		}
	}
}

func (v *View) loadStats() tea.Cmd {
	ctx := v.ctx
	query := v.query
	return func() tea.Msg {
		return messages.StatsLoaded{Stats: query.Stats(ctx)}
	}
}

// View renders the chat screen.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Header.Render(v.header),
		v.transcript.View(),
		v.input.View(),
		v.status.View(),
	)
}

// SetDimensions lays out the components for a terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	// header, boxed input (3 lines) and status bar
	const chrome = 1 + 3 + 1
	v.transcript.SetSize(width, height-chrome)
	v.input.SetWidth(width)
	v.status.SetWidth(width)
}

// Pending reports whether a question is being answered.
func (v *View) Pending() bool {
	return v.pending
}

// Turns returns the conversation so far.
func (v *View) Turns() []transcript.Turn {
	return v.transcript.Turns()
}

// Input returns the question input.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.status
}
