// Package styles provides the colour theme and lipgloss styles for the chat.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette.
type Theme struct {
	// Accent marks the header, spinner and input border when focused.
	Accent lipgloss.Color

	// User colours the user's questions.
	User lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for hints and metadata.
	Muted lipgloss.Color

	// Error colours failed answers.
	Error lipgloss.Color

	// Border is the colour of box borders.
	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#D97706"), // Amber
		User:       lipgloss.Color("#38BDF8"), // Sky
		Foreground: lipgloss.Color("#E7E5E4"), // Stone 200
		Muted:      lipgloss.Color("#78716C"), // Stone 500
		Error:      lipgloss.Color("#F87171"), // Red 400
		Border:     lipgloss.Color("#44403C"), // Stone 700
		Bar:        lipgloss.Color("#1C1917"), // Stone 900
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Header is the title line.
	Header lipgloss.Style

	// Question renders the user's turns.
	Question lipgloss.Style

	// Answer renders the assistant's turns.
	Answer lipgloss.Style

	// Meta renders the note under an answer.
	Meta lipgloss.Style

	// Error renders failed turns and status errors.
	Error lipgloss.Style

	// Muted is for less important text.
	Muted lipgloss.Style

	// Spinner is the thinking indicator.
	Spinner lipgloss.Style

	// Transcript boxes the conversation.
	Transcript lipgloss.Style

	// InputField boxes the question input.
	InputField lipgloss.Style

	// StatusBar is the bottom line.
	StatusBar lipgloss.Style

	// Help renders the help view.
	Help lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.User),

		Answer: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2),

		Meta: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true).
			PaddingLeft(2),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Transcript: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(1, 2),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
