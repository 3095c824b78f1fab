package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// filterManager implements the FilterManager interface.
type filterManager struct {
	input  textinput.Model
	active bool
}

// NewFilterManager creates a new FilterManager instance.
func NewFilterManager() FilterManager {
	input := textinput.New()
	input.Placeholder = "Search channels and types..."
	input.CharLimit = 100
	input.Width = 50
	input.Prompt = ""

	return &filterManager{input: input}
}

// ApplyFilter keeps channels whose name fuzzily matches the filter or whose
// type contains it.
func (fm *filterManager) ApplyFilter(items []list.Item, filter string) []list.Item {
	if filter == "" {
		return items
	}

	lower := strings.ToLower(filter)
	var filtered []list.Item
	for _, item := range items {
		ci, ok := item.(ChannelItem)
		if !ok {
			continue
		}
		if FuzzyMatch(ci.Info.Name, filter) || strings.Contains(strings.ToLower(ci.Info.Type), lower) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// IsActive returns true if filtering is currently active.
func (fm *filterManager) IsActive() bool {
	return fm.active
}

// SetActive sets the filter active state.
func (fm *filterManager) SetActive(active bool) {
	fm.active = active
	if active {
		fm.input.Focus()
	} else {
		fm.input.Blur()
	}
}

// UpdateInput updates the filter input model and returns a command.
func (fm *filterManager) UpdateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	fm.input, cmd = fm.input.Update(msg)
	return cmd
}

// ClearFilter clears the current filter.
func (fm *filterManager) ClearFilter() {
	fm.input.SetValue("")
	fm.active = false
	fm.input.Blur()
}

// GetFilterText returns the current filter text.
func (fm *filterManager) GetFilterText() string {
	return fm.input.Value()
}

// FuzzyMatch reports whether every rune of pattern appears in s in order,
// ignoring case. "flmt" matches "fleet/motor/temp".
func FuzzyMatch(s, pattern string) bool {
	s = strings.ToLower(s)
	pattern = strings.ToLower(pattern)

	if pattern == "" || strings.Contains(s, pattern) {
		return true
	}

	p := []rune(pattern)
	i := 0
	for _, c := range s {
		if i < len(p) && c == p[i] {
			i++
		}
	}
	return i == len(p)
}
