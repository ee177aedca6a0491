package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/views/chat"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// chatView is the question and answer view.
	chatView *chat.View

	// helpBar is the status bar shown under the help view.
	helpBar *status.Bar

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingQueryService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	helpBar := status.NewBar(s, km)
	helpBar.SetState(status.StateHelp)

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		chatView:    chat.NewView(s, km, ports.Query, header(ports)),
		helpBar:     helpBar,
		currentView: messages.ViewChat,
	}, nil
}

// header names the models in use when settings are available.
func header(ports *Ports) string {
	title := "Quarry"
	if ports.Settings == nil {
		return title
	}
	settings, err := ports.Settings.Get()
	if err != nil || settings == nil {
		return title
	}

	var parts []string
	if settings.LLM.Model != "" {
		parts = append(parts, fmt.Sprintf("%s/%s", settings.LLM.Provider, settings.LLM.Model))
	}
	if settings.Embedding.Model != "" {
		parts = append(parts, fmt.Sprintf("embed %s", settings.Embedding.Model))
	}
	if len(parts) == 0 {
		return title
	}
	return title + " · " + strings.Join(parts, " · ")
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("quarry"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keymap.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keymap.Help):
			return a, a.toggleHelp()
		case a.currentView == messages.ViewHelp:
			if key.Matches(msg, a.keymap.Back) {
				a.currentView = messages.ViewChat
			}
			return a, nil
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.AnswerReceived:
		a.err = msg.Err

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

func (a *App) toggleHelp() tea.Cmd {
	next := messages.ViewHelp
	if a.currentView == messages.ViewHelp {
		next = messages.ViewChat
	}
	return func() tea.Msg { return messages.ViewChanged{View: next} }
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	if a.currentView == messages.ViewHelp {
		return a.viewHelp()
	}
	return a.chatView.View()
}

// viewHelp renders the keybindings grouped as in the key map.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Header.Render("Help"))
	b.WriteString("\n")

	for _, group := range a.keymap.FullHelp() {
		b.WriteString("\n")
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
	}

	b.WriteString("\nQuestions are answered from the indexed warehouse.\n")
	b.WriteString("Run `quarry index` first if the index is empty.\n")

	return a.styles.Help.Render(b.String()) + "\n" + a.helpBar.View()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
	a.helpBar.SetWidth(width)
}
