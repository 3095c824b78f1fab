package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/ikari-pl/go-msgspy/internal/channels"
	"github.com/ikari-pl/go-msgspy/internal/inspect"
)

// State represents the complete application state.
type State struct {
	// Core data
	Channels ChannelSource
	AllItems []list.Item

	// Current view state
	CurrentView     string
	PreviousView    string
	SelectedChannel string

	// UI components
	List list.Model
	Help help.Model
	Keys KeyMap

	// Window dimensions
	WindowWidth   int
	WindowHeight  int
	ContentWidth  int
	ContentHeight int

	// View-specific state
	Inspector *InspectorState
	Charts    *ChartManager

	// Navigation
	Navigator Navigator

	// Channel list options
	SortBy       string // "name", "rate"
	FilterActive bool

	// Status
	StatusMessage string
	StatusType    string // "info", "success", "warning", "error"
}

// InspectorState holds the inspector of the selected channel. It is the
// scroll container of its panel.
type InspectorState struct {
	Channel  string
	Panel    *inspect.Panel
	Canvas   *Canvas
	Viewport viewport.Model

	// Cursor is the content line under the keyboard cursor.
	Cursor int
	Stats  inspect.FrameStats

	// ContentHeight is the panel height in pixels reported by the last paint.
	ContentHeight int
	relayout      bool
	// repaint is set by pointer and key events; the next frame paints.
	repaint bool
}

// Relayout implements inspect.Container.
func (s *InspectorState) Relayout(height int) {
	s.ContentHeight = height
	s.relayout = true
}

// ViewState represents a saved navigation state.
type ViewState struct {
	View         string // "channels", "inspector", "help"
	Channel      string
	ListIndex    int
	Cursor       int
	ScrollOffset int
	NavPath      []PathItem
}

// PathItem represents a single step in the navigation path.
type PathItem struct {
	Channel     string
	Direction   string
	DisplayName string
}

// HelpSection represents a section in the help view.
type HelpSection struct {
	Title    string
	Bindings []KeyBinding
}

// KeyBinding represents a keyboard shortcut.
type KeyBinding struct {
	Key         string
	Description string
	Context     string // "global", "channels", "inspector"
}

// ChannelItem represents a channel in the channel list.
type ChannelItem struct {
	Info channels.Info
}

// FilterValue implements list.Item interface.
func (ci ChannelItem) FilterValue() string {
	return ci.Info.Name + " " + ci.Info.Type
}

// Title implements list.Item interface.
func (ci ChannelItem) Title() string {
	name := ci.Info.Name
	if len(name) > MaxDisplayNameLength {
		name = name[:TruncateLength] + EllipsisString
	}
	return IconChannel + " " + name
}

// Description implements list.Item interface.
func (ci ChannelItem) Description() string {
	desc := ci.Info.Type + " │ " + ci.Info.Summary()
	if ci.Info.Errors > 0 {
		desc += fmt.Sprintf(" │ %d errors", ci.Info.Errors)
	}
	return desc
}

// Constants for view names.
const (
	ViewChannels  = "channels"
	ViewInspector = "inspector"
	ViewHelp      = "help"
)

// Constants for navigation directions.
const (
	DirectionStart = "⇄"
	DirectionOpen  = "→"
)

// Constants for icons.
const (
	IconChannel = "⇄"
	IconCursor  = "▸"
)

// Constants for display limits.
const (
	MaxDisplayNameLength = 60
	TruncateLength       = 57
	EllipsisString       = "..."
	MaxNavPathLength     = 10
	TopChannels          = 10
)

// Constants for sort options.
const (
	SortByName = "name"
	SortByRate = "rate"
)

// StatusType constants
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DefaultKeyBindings returns the help sections for a key map.
func DefaultKeyBindings(k KeyMap) []HelpSection {
	section := func(title, context string, bindings ...keyHelp) HelpSection {
		s := HelpSection{Title: title}
		for _, b := range bindings {
			s.Bindings = append(s.Bindings, KeyBinding{Key: b.Key, Description: b.Desc, Context: context})
		}
		return s
	}
	return []HelpSection{
		section("Navigation", "global",
			helpOf(k.Up), helpOf(k.Down), helpOf(k.PageUp), helpOf(k.PageDown),
			helpOf(k.Top), helpOf(k.Bottom), helpOf(k.Back), helpOf(k.Quit)),
		section("Channels", "channels",
			helpOf(k.Open), helpOf(k.Filter), helpOf(k.Sort)),
		section("Inspector", "inspector",
			helpOf(k.Toggle), helpOf(k.CollapseAll), helpOf(k.ExpandAll), helpOf(k.Export),
			keyHelp{Key: "click", Desc: "toggle section / chart field"},
			keyHelp{Key: "right click", Desc: "chart field on a new axis"},
			keyHelp{Key: "middle click", Desc: "chart field in a new window"}),
		section("Charts", "inspector",
			helpOf(k.NextChart), helpOf(k.CloseChart)),
	}
}
