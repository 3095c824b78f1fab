package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/tui/theme"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CHANNELS VIEW
// ═══════════════════════════════════════════════════════════════════════════════

// channelsView lists every channel seen so far.
type channelsView struct {
	styles StyleManager
	filter FilterManager
}

// NewChannelsView creates a new channel list view.
func NewChannelsView(styles StyleManager, filter FilterManager) View {
	return &channelsView{
		styles: styles,
		filter: filter,
	}
}

// Name returns the view's name.
func (cv *channelsView) Name() string {
	return ViewChannels
}

// Render renders the view with the given model state.
func (cv *channelsView) Render(state *State) string {
	width := state.WindowWidth
	if width < 40 {
		width = 80
	}

	parts := []string{
		cv.styles.Header("MSGSPY │ Channels", width),
		cv.renderStatsBar(state, width),
		cv.renderFilterBar(width),
	}
	if len(state.AllItems) == 0 {
		parts = append(parts, cv.styles.DimText("  Waiting for messages..."))
	} else {
		parts = append(parts, state.List.View())
	}
	parts = append(parts, cv.styles.GetStyles().Footer.Width(width).Render(
		state.Help.ShortHelpView(channelKeys{state.Keys}.ShortHelp())))

	return strings.Join(parts, "\n")
}

// renderStatsBar summarises the busiest channels.
func (cv *channelsView) renderStatsBar(state *State, width int) string {
	items := []string{fmt.Sprintf("%s %d channels", theme.Icons.Channel, len(state.AllItems))}
	if state.Channels != nil {
		for _, info := range state.Channels.Top(3) {
			items = append(items, fmt.Sprintf("%s %.1f/s", info.Name, info.Rate))
		}
	}
	items = append(items, "sort: "+state.SortBy)
	return cv.styles.StatusBar(strings.Join(items, "  │  "), width)
}

// renderFilterBar is always rendered so the layout does not jump.
func (cv *channelsView) renderFilterBar(width int) string {
	t := cv.styles.GetTheme()
	text := cv.filter.GetFilterText()

	switch {
	case cv.filter.IsActive():
		return lipgloss.NewStyle().
			Background(t.Highlight).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true).
			Padding(0, 1).
			Width(width).
			Render("FILTER: " + text + "▌  │  Enter=apply  Esc=cancel")
	case text != "":
		return lipgloss.NewStyle().
			Background(t.Success).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Width(width).
			Render(theme.Icons.Check + " Filtered: \"" + text + "\"  │  / to edit")
	default:
		return lipgloss.NewStyle().
			Background(t.Surface).
			Foreground(t.Muted).
			Padding(0, 1).
			Width(width).
			Render("   / to search...")
	}
}

// Update handles view-specific updates.
func (cv *channelsView) Update(msg tea.Msg, state *State) (*State, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, state.Keys.Open):
			ci, ok := state.List.SelectedItem().(ChannelItem)
			if !ok {
				return state, nil
			}
			state.Navigator.PushState(ViewState{
				View:      ViewChannels,
				ListIndex: state.List.Index(),
				NavPath:   state.Navigator.GetPath(),
			})
			state.Navigator.ClearPath()
			state.Navigator.AddToPath(ci.Info.Name, DirectionStart)
			channel := ci.Info.Name
			return state, func() tea.Msg { return openChannelMsg{channel: channel} }
		case key.Matches(keyMsg, state.Keys.Top):
			state.List.Select(0)
			return state, nil
		case key.Matches(keyMsg, state.Keys.Bottom):
			state.List.Select(len(state.List.Items()) - 1)
			return state, nil
		}
	}

	var cmd tea.Cmd
	state.List, cmd = state.List.Update(msg)
	return state, cmd
}

// CanHandle returns true if this view can handle the given message.
func (cv *channelsView) CanHandle(msg tea.Msg, state *State) bool {
	return state.CurrentView == ViewChannels
}

// ═══════════════════════════════════════════════════════════════════════════════
// INSPECTOR VIEW
// ═══════════════════════════════════════════════════════════════════════════════

// inspectorTop is the number of screen lines above the inspector viewport.
const inspectorTop = 3

// inspectorView shows the tree of the selected channel and its charts.
type inspectorView struct {
	styles StyleManager
}

// NewInspectorView creates a new inspector view.
func NewInspectorView(styles StyleManager) View {
	return &inspectorView{styles: styles}
}

// Name returns the view's name.
func (iv *inspectorView) Name() string {
	return ViewInspector
}

// Render renders the view with the given model state.
func (iv *inspectorView) Render(state *State) string {
	s := state.Inspector
	width := max(state.WindowWidth, 20)
	if s == nil {
		return iv.styles.Error("no channel selected")
	}

	parts := []string{
		iv.styles.Header("MSGSPY │ "+state.Navigator.RenderPath(), width),
		iv.renderStatusBar(state, width),
	}
	if s.Panel.Current() == nil {
		parts = append(parts, lipgloss.NewStyle().Height(s.Viewport.Height).Render(
			iv.styles.DimText("  Waiting for messages on "+s.Channel+"...")))
	} else {
		parts = append(parts, s.Viewport.View())
	}
	if h := chartPaneHeight(state); h > 0 {
		pane := state.Charts.Render(width, h-1, iv.styles)
		parts = append(parts, iv.styles.GetStyles().ChartPane.Width(width).Render(pane))
	}
	parts = append(parts, iv.styles.GetStyles().Footer.Width(width).Render(
		state.Help.ShortHelpView(state.Keys.ShortHelp())))

	return strings.Join(parts, "\n")
}

// renderStatusBar shows the channel counters, the section under the cursor
// and the paint statistics, or a pending status message.
func (iv *inspectorView) renderStatusBar(state *State, width int) string {
	if state.StatusMessage != "" {
		st := iv.styles.GetStyles()
		style := st.Success
		switch state.StatusType {
		case StatusError:
			return iv.styles.Error(state.StatusMessage)
		case StatusWarning:
			style = st.Warning
		case StatusInfo:
			style = st.Value
		}
		return style.Width(width).Render(state.StatusMessage)
	}

	s := state.Inspector
	var items []string
	if info, ok := state.Channels.Get(s.Channel); ok {
		items = append(items, info.Type, info.Summary())
	}
	if sec := s.Panel.Sections().SectionAt(cursorY(s)); sec != nil {
		items = append(items, IconCursor+" "+sec.Path)
	}
	items = append(items, fmt.Sprintf("live %d/%d", s.Panel.Culler().LiveCount(), s.Stats.Drawn+s.Stats.Culled))
	return iv.styles.StatusBar(strings.Join(items, "  │  "), width)
}

// Update handles keys and the pointer.
func (iv *inspectorView) Update(msg tea.Msg, state *State) (*State, tea.Cmd) {
	s := state.Inspector
	if s == nil {
		return state, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		iv.handleKey(msg, state)
	case tea.MouseMsg:
		iv.handleMouse(msg, state)
	}
	return state, nil
}

func (iv *inspectorView) handleKey(msg tea.KeyMsg, state *State) {
	s := state.Inspector
	keys := state.Keys
	page := max(s.Viewport.Height-1, 1)

	switch {
	case key.Matches(msg, keys.Up):
		moveCursor(s, -1)
	case key.Matches(msg, keys.Down):
		moveCursor(s, 1)
	case key.Matches(msg, keys.PageUp):
		moveCursor(s, -page)
	case key.Matches(msg, keys.PageDown):
		moveCursor(s, page)
	case key.Matches(msg, keys.Top):
		moveCursor(s, -s.Cursor)
	case key.Matches(msg, keys.Bottom):
		moveCursor(s, s.Viewport.TotalLineCount())
	case key.Matches(msg, keys.Toggle):
		if s.Panel.ToggleSectionAt(cursorY(s)) {
			s.repaint = true
		}
	case key.Matches(msg, keys.CollapseAll):
		s.Panel.SetAllCollapsed(true)
		s.repaint = true
	case key.Matches(msg, keys.ExpandAll):
		s.Panel.SetAllCollapsed(false)
		s.repaint = true
	case key.Matches(msg, keys.NextChart):
		state.Charts.FocusNext()
	case key.Matches(msg, keys.CloseChart):
		if state.Charts.CloseFocused() {
			layoutInspector(state)
		}
	}
}

func (iv *inspectorView) handleMouse(msg tea.MouseMsg, state *State) {
	s := state.Inspector
	line := msg.Y - inspectorTop
	if line < 0 || line >= s.Viewport.Height {
		return
	}
	rh := s.Panel.Layout().RowHeight
	x := msg.X*2 + 1
	y := (line+s.Viewport.YOffset)*rh + rh/2

	if msg.Action == tea.MouseActionMotion {
		if out := s.Panel.PointerMoved(x, y); out.Repaint {
			s.repaint = true
		}
		return
	}
	if msg.Action != tea.MouseActionPress {
		return
	}

	var b inspect.Button
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		s.Viewport.SetYOffset(s.Viewport.YOffset - 3)
		syncViewport(s)
		return
	case tea.MouseButtonWheelDown:
		s.Viewport.SetYOffset(s.Viewport.YOffset + 3)
		syncViewport(s)
		return
	case tea.MouseButtonLeft:
		b = inspect.ButtonPrimary
	case tea.MouseButtonMiddle:
		b = inspect.ButtonMiddle
	case tea.MouseButtonRight:
		b = inspect.ButtonSecondary
	default:
		return
	}

	s.Cursor = line + s.Viewport.YOffset
	charted := len(state.Charts.Windows())
	out := s.Panel.Clicked(x, y, b)
	if out.Repaint || out.Toggle != nil {
		s.repaint = true
	}
	if out.Chart != nil && len(state.Charts.Windows()) != charted {
		layoutInspector(state)
	}
}

// CanHandle returns true if this view can handle the given message.
func (iv *inspectorView) CanHandle(msg tea.Msg, state *State) bool {
	return state.CurrentView == ViewInspector
}

// cursorY is the pixel row in the middle of the cursor line.
func cursorY(s *InspectorState) int {
	rh := s.Panel.Layout().RowHeight
	return s.Cursor*rh + rh/2
}

// moveCursor moves the cursor and scrolls it into view.
func moveCursor(s *InspectorState, delta int) {
	last := max(s.Viewport.TotalLineCount()-1, 0)
	s.Cursor = min(max(s.Cursor+delta, 0), last)
	switch {
	case s.Cursor < s.Viewport.YOffset:
		s.Viewport.SetYOffset(s.Cursor)
	case s.Cursor >= s.Viewport.YOffset+s.Viewport.Height:
		s.Viewport.SetYOffset(s.Cursor - s.Viewport.Height + 1)
	}
	syncViewport(s)
}

// chartPaneHeight is the number of lines given to the chart pane.
func chartPaneHeight(state *State) int {
	if state.Charts == nil || len(state.Charts.Windows()) == 0 {
		return 0
	}
	return min(max(state.WindowHeight/3, 6), 16)
}

// layoutInspector sizes the viewport to the space left by the header, the
// chart pane and the footer.
func layoutInspector(state *State) {
	s := state.Inspector
	if s == nil {
		return
	}
	s.Viewport.Width = max(state.WindowWidth, 1)
	s.Viewport.Height = max(state.WindowHeight-inspectorTop-1-chartPaneHeight(state), 1)
	syncViewport(s)
}

// syncViewport tells the panel which part of its content is on screen. A
// moved viewport changes the live set, so the next frame repaints.
func syncViewport(s *InspectorState) {
	rh := s.Panel.Layout().RowHeight
	v := inspect.Viewport{
		Top:    s.Viewport.YOffset * rh,
		Height: s.Viewport.Height * rh,
	}
	if prev, ok := s.Panel.Culler().Viewport(); !ok || prev != v {
		s.repaint = true
	}
	s.Panel.SetViewport(v)
}

// ═══════════════════════════════════════════════════════════════════════════════
// HELP VIEW
// ═══════════════════════════════════════════════════════════════════════════════

// helpView implements the View interface for the help overlay.
type helpView struct {
	styles StyleManager
}

// NewHelpView creates a new help view.
func NewHelpView(styles StyleManager) View {
	return &helpView{
		styles: styles,
	}
}

// Name returns the view's name.
func (hv *helpView) Name() string {
	return ViewHelp
}

// Render renders the help overlay.
func (hv *helpView) Render(state *State) string {
	width := state.WindowWidth
	if width < 40 {
		width = 80
	}
	if width > 100 {
		width = 100
	}
	t := hv.styles.GetTheme()

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Success).
		Width(16)
	descStyle := lipgloss.NewStyle().
		Foreground(t.Text)

	var content strings.Builder
	for i, section := range DefaultKeyBindings(state.Keys) {
		if i > 0 {
			content.WriteString(hv.styles.Separator(width-8) + "\n")
		}
		content.WriteString(hv.styles.Title(section.Title) + "\n")
		for _, binding := range section.Bindings {
			content.WriteString(fmt.Sprintf("  %s %s\n",
				keyStyle.Render(binding.Key),
				descStyle.Render(binding.Description)))
		}
	}

	box := hv.styles.GetStyles().Box.Width(width - 4).Render(content.String())
	return hv.styles.Header("KEYBOARD SHORTCUTS", width) + "\n" + box + "\n" +
		hv.styles.Footer("[?]close [esc]back", width)
}

// Update handles view-specific updates.
func (hv *helpView) Update(msg tea.Msg, state *State) (*State, tea.Cmd) {
	return state, nil
}

// CanHandle returns true if this view can handle the given message.
func (hv *helpView) CanHandle(msg tea.Msg, state *State) bool {
	return state.CurrentView == ViewHelp
}
