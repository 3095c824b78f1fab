package tui

import (
	"fmt"
	"sync"
)

// viewManager implements the ViewManager interface.
type viewManager struct {
	views       map[string]View
	currentView string
	mu          sync.RWMutex
}

// NewViewManager creates a ViewManager with the channel list, inspector and
// help views registered.
func NewViewManager(styles StyleManager, filter FilterManager) ViewManager {
	vm := &viewManager{
		views:       make(map[string]View),
		currentView: ViewChannels,
	}

	vm.RegisterView(NewChannelsView(styles, filter))
	vm.RegisterView(NewInspectorView(styles))
	vm.RegisterView(NewHelpView(styles))

	return vm
}

// GetCurrentView returns the currently active view.
func (vm *viewManager) GetCurrentView(state *State) View {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	if state == nil {
		return vm.views[vm.currentView]
	}

	viewName := state.CurrentView
	if viewName == "" {
		viewName = vm.currentView
	}

	if view, ok := vm.views[viewName]; ok {
		return view
	}

	return vm.views[ViewChannels]
}

// SwitchView switches to the specified view.
func (vm *viewManager) SwitchView(viewName string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if _, ok := vm.views[viewName]; !ok {
		return fmt.Errorf("view '%s' not found", viewName)
	}

	vm.currentView = viewName
	return nil
}

// RegisterView registers a new view.
func (vm *viewManager) RegisterView(view View) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if view != nil {
		vm.views[view.Name()] = view
	}
}
