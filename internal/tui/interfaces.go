// Package tui provides the terminal user interface of msgspy: a channel list
// and a per-channel inspector tree with sparklines and detailed charts.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ikari-pl/go-msgspy/internal/channels"
	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/introspect"
	"github.com/ikari-pl/go-msgspy/internal/tui/theme"
)

// TUI provides the main terminal user interface.
type TUI interface {
	// Run starts the TUI and blocks until the user exits or ctx is done.
	Run(ctx context.Context) error
}

// Model represents the application state for the TUI.
type Model interface {
	// Init initializes the model.
	Init() tea.Cmd

	// Update handles messages and updates the model.
	Update(tea.Msg) (tea.Model, tea.Cmd)

	// View renders the current view.
	View() string
}

// ViewManager manages different views in the TUI.
type ViewManager interface {
	// GetCurrentView returns the currently active view.
	GetCurrentView(state *State) View

	// SwitchView switches to the specified view.
	SwitchView(viewName string) error

	// RegisterView registers a new view.
	RegisterView(view View)
}

// View represents a single view in the TUI.
type View interface {
	// Name returns the view's name.
	Name() string

	// Render renders the view with the given model state.
	Render(state *State) string

	// Update handles view-specific updates.
	Update(msg tea.Msg, state *State) (*State, tea.Cmd)

	// CanHandle returns true if this view can handle the given message.
	CanHandle(msg tea.Msg, state *State) bool
}

// Navigator manages navigation state and history.
type Navigator interface {
	// PushState saves the current state to the navigation stack.
	PushState(state ViewState)

	// PopState returns to the previous state from the navigation stack.
	PopState() (ViewState, bool)

	// AddToPath adds a new navigation step to the breadcrumb path.
	AddToPath(channel, direction string)

	// GetPath returns the current navigation path.
	GetPath() []PathItem

	// ClearPath clears the navigation path.
	ClearPath()

	// RenderPath renders the navigation path as a string.
	RenderPath() string
}

// StyleManager provides consistent styling across the TUI.
type StyleManager interface {
	// Header renders a full width header with the given text.
	Header(text string, width int) string

	// Footer renders key hints given as "[key]label" words.
	Footer(text string, width int) string

	// StatusBar renders a one line status summary.
	StatusBar(text string, width int) string

	// Error renders error text.
	Error(text string) string

	// DimText renders text with dimmed/grayed out styling.
	DimText(text string) string

	// Title renders a title.
	Title(text string) string

	// Separator renders a visual separator.
	Separator(width int) string

	// Cell returns the style of an inspector cell.
	Cell(fg, bg inspect.Color, font inspect.Font) lipgloss.Style

	// GetStyles returns the underlying theme styles.
	GetStyles() *theme.Styles

	// GetTheme returns the underlying theme.
	GetTheme() *theme.Theme
}

// FilterManager handles filtering and searching functionality.
type FilterManager interface {
	// ApplyFilter applies the given filter to the items.
	ApplyFilter(items []list.Item, filter string) []list.Item

	// IsActive returns true if filtering is currently active.
	IsActive() bool

	// SetActive sets the filter active state.
	SetActive(active bool)

	// UpdateInput updates the filter input model and returns a command.
	UpdateInput(msg tea.Msg) tea.Cmd

	// ClearFilter clears the current filter.
	ClearFilter()

	// GetFilterText returns the current filter text.
	GetFilterText() string
}

// ChannelSource is the live channel table the TUI browses. *channels.Registry
// implements it.
type ChannelSource interface {
	Snapshot() []channels.Info
	Top(n int) []channels.Info
	Get(channel string) (channels.Info, bool)
	Latest(channel string) (introspect.Value, int64, bool)
	Attach(channel string, sink channels.Sink)
	Detach(channel string)
}
