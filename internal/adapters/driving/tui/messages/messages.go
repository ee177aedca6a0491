// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/quarry/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the answer to a submitted question.
type AnswerReceived struct {
	Question string
	Answer   string

	// ContextDocs is the number of documents the answer was grounded on.
	ContextDocs int
	Err         error
}

// StatsLoaded carries the vector index statistics.
type StatsLoaded struct {
	Stats domain.IndexStats
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the question and answer transcript.
	ViewChat ViewType = iota
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
