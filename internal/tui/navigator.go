package tui

import "strings"

// navigator implements the Navigator interface.
type navigator struct {
	stack []ViewState
	path  []PathItem
}

// NewNavigator creates a new Navigator instance.
func NewNavigator() Navigator {
	return &navigator{
		stack: make([]ViewState, 0),
		path:  make([]PathItem, 0),
	}
}

// PushState saves the current state to the navigation stack.
func (n *navigator) PushState(state ViewState) {
	n.stack = append(n.stack, state)
}

// PopState returns to the previous state from the navigation stack.
func (n *navigator) PopState() (ViewState, bool) {
	if len(n.stack) == 0 {
		return ViewState{}, false
	}

	last := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]

	if len(n.path) > 0 {
		n.path = n.path[:len(n.path)-1]
	}

	return last, true
}

// AddToPath adds a new navigation step to the breadcrumb path.
func (n *navigator) AddToPath(channel, direction string) {
	if channel == "" {
		return
	}

	displayName := channel
	if len(displayName) > 24 {
		displayName = "..." + displayName[len(displayName)-21:]
	}

	if len(n.path) >= MaxNavPathLength {
		n.path = n.path[1:]
	}

	n.path = append(n.path, PathItem{
		Channel:     channel,
		Direction:   direction,
		DisplayName: displayName,
	})
}

// GetPath returns the current navigation path.
func (n *navigator) GetPath() []PathItem {
	return n.path
}

// ClearPath clears the navigation path.
func (n *navigator) ClearPath() {
	n.path = make([]PathItem, 0)
}

// RenderPath renders the navigation path as a formatted string.
func (n *navigator) RenderPath() string {
	if len(n.path) == 0 {
		return ""
	}

	parts := make([]string, 0, len(n.path))
	for i, item := range n.path {
		part := item.DisplayName
		if i > 0 {
			part = item.Direction + " " + part
		}
		parts = append(parts, part)
	}

	return strings.Join(parts, " ")
}
