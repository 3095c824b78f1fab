package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/logging"
	"github.com/ikari-pl/go-msgspy/internal/output"
	"github.com/ikari-pl/go-msgspy/internal/tui/theme"
)

// Options configures the TUI.
type Options struct {
	Layout inspect.Layout
	// Samples is the sparkline buffer capacity; Detailed is the capacity a
	// buffer is raised to once charted.
	Samples    int
	Detailed   int
	CullMargin int
	// StartMicros is the time origin of every panel.
	StartMicros   int64
	FrameInterval time.Duration
	// Channel is opened on start when set.
	Channel   string
	ExportDir string
	Theme     *theme.Theme
	Logger    zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Layout.RowHeight <= 0 {
		o.Layout = inspect.DefaultLayout()
	}
	if o.Samples <= 0 {
		o.Samples = 256
	}
	if o.Detailed < o.Samples {
		o.Detailed = o.Samples
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = 50 * time.Millisecond
	}
	if o.ExportDir == "" {
		o.ExportDir = "."
	}
	return o
}

// tui implements the TUI interface.
type tui struct {
	channels    ChannelSource
	opts        Options
	viewManager ViewManager
	navigator   Navigator
	styles      StyleManager
	filter      FilterManager
}

// NewTUI creates a new TUI instance browsing channels.
func NewTUI(channels ChannelSource, opts Options) TUI {
	styles := NewStyleManager(opts.Theme)
	filter := NewFilterManager()

	return &tui{
		channels:    channels,
		opts:        opts.withDefaults(),
		viewManager: NewViewManager(styles, filter),
		navigator:   NewNavigator(),
		styles:      styles,
		filter:      filter,
	}
}

// Run starts the TUI and blocks until the user exits or ctx is done.
func (t *tui) Run(ctx context.Context) error {
	if t.channels == nil {
		return fmt.Errorf("channel source cannot be nil")
	}

	m := NewModel(t.channels, t.opts, t.viewManager, t.navigator, t.styles, t.filter)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

type (
	frameMsg   time.Time
	refreshMsg time.Time
	// openChannelMsg asks the model to show the inspector of a channel.
	openChannelMsg struct{ channel string }
	exportedMsg    struct {
		path string
		err  error
	}
)

// model implements the Model interface and serves as the main application model.
type model struct {
	state       *State
	opts        Options
	viewManager ViewManager
	navigator   Navigator
	styles      StyleManager
	filter      FilterManager
	output      output.Manager
	panels      map[string]*InspectorState
	logger      zerolog.Logger
}

// NewModel creates a new model instance.
func NewModel(channels ChannelSource, opts Options, vm ViewManager, nav Navigator, styles StyleManager, filter FilterManager) Model {
	opts = opts.withDefaults()
	t := styles.GetTheme()

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(t.Text).
		Background(t.Selection).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(t.Subtle).
		Background(t.Selection)

	listModel := list.New(nil, delegate, 80, 30)
	listModel.SetShowTitle(false)
	listModel.SetShowStatusBar(true)
	listModel.SetFilteringEnabled(false)
	listModel.SetShowHelp(false)

	state := &State{
		Channels:     channels,
		CurrentView:  ViewChannels,
		List:         listModel,
		Help:         help.New(),
		Keys:         DefaultKeyMap(),
		WindowWidth:  80,
		WindowHeight: 30,
		Charts:       NewChartManager(opts.Detailed, logging.Component("charts")),
		Navigator:    nav,
		SortBy:       SortByName,
	}

	m := &model{
		state:       state,
		opts:        opts,
		viewManager: vm,
		navigator:   nav,
		styles:      styles,
		filter:      filter,
		output:      output.NewManager(),
		panels:      make(map[string]*InspectorState),
		logger:      opts.Logger,
	}
	m.refreshChannels()
	if opts.Channel != "" {
		m.openChannel(opts.Channel)
	}
	return m
}

// Init initializes the model.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.frameTick(), refreshTick())
}

func (m *model) frameTick() tea.Cmd {
	return tea.Tick(m.opts.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func refreshTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Update handles messages and updates the model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)
		return m, nil

	case frameMsg:
		m.paintInspector(false)
		return m, m.frameTick()

	case refreshMsg:
		m.refreshChannels()
		return m, refreshTick()

	case openChannelMsg:
		m.openChannel(msg.channel)
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setStatus(StatusError, "Export failed: "+msg.err.Error())
		} else {
			m.setStatus(StatusSuccess, "Exported "+msg.path)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	default:
		if m.filter.IsActive() {
			cmd := m.filter.UpdateInput(msg)
			m.applyFilter()
			return m, cmd
		}

		currentView := m.viewManager.GetCurrentView(m.state)
		if currentView != nil && currentView.CanHandle(msg, m.state) {
			newState, cmd := currentView.Update(msg, m.state)
			m.state = newState
			return m, cmd
		}

		var cmd tea.Cmd
		m.state.List, cmd = m.state.List.Update(msg)
		return m, cmd
	}
}

// View renders the current view.
func (m *model) View() string {
	currentView := m.viewManager.GetCurrentView(m.state)
	if currentView == nil {
		return "Error: No view available"
	}

	return currentView.Render(m.state)
}

// handleWindowResize handles window resize messages.
func (m *model) handleWindowResize(msg tea.WindowSizeMsg) {
	m.state.WindowWidth = msg.Width
	m.state.WindowHeight = msg.Height

	headerHeight := 3
	footerHeight := 2
	statsBarHeight := 1

	m.state.ContentWidth = msg.Width
	m.state.ContentHeight = msg.Height - headerHeight - footerHeight - statsBarHeight

	m.state.List.SetWidth(msg.Width)
	m.state.List.SetHeight(max(m.state.ContentHeight, 5))
	m.state.Help.Width = msg.Width

	if m.state.Inspector != nil {
		layoutInspector(m.state)
		m.paintInspector(true)
	}
}

// handleKeyPress handles key press messages.
func (m *model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.state.Keys
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	if m.filter.IsActive() && m.state.CurrentView == ViewChannels {
		switch msg.String() {
		case "esc":
			m.filter.ClearFilter()
			m.state.FilterActive = false
			m.applyFilter()
			return m, nil
		case "enter", "tab":
			m.filter.SetActive(false)
			m.state.FilterActive = false
			return m, nil
		case "up", "down":
			m.filter.SetActive(false)
			m.state.FilterActive = false
		default:
			cmd := m.filter.UpdateInput(msg)
			m.applyFilter()
			return m, cmd
		}
	} else if m.filter.IsActive() {
		m.filter.SetActive(false)
		m.state.FilterActive = false
	}

	m.state.StatusMessage = ""

	switch {
	case key.Matches(msg, keys.Back):
		return m.handleBackNavigation()

	case key.Matches(msg, keys.Help):
		return m.handleHelpToggle()

	case key.Matches(msg, keys.Filter) && m.state.CurrentView == ViewChannels:
		m.filter.SetActive(true)
		m.state.FilterActive = true
		return m, nil

	case key.Matches(msg, keys.Sort) && m.state.CurrentView == ViewChannels:
		if m.state.SortBy == SortByName {
			m.state.SortBy = SortByRate
		} else {
			m.state.SortBy = SortByName
		}
		m.refreshChannels()
		return m, nil

	case key.Matches(msg, keys.Export) && m.state.CurrentView == ViewInspector:
		return m, m.exportCmd()
	}

	currentView := m.viewManager.GetCurrentView(m.state)
	if currentView != nil && currentView.CanHandle(msg, m.state) {
		newState, cmd := currentView.Update(msg, m.state)
		m.state = newState
		return m, cmd
	}

	var cmd tea.Cmd
	m.state.List, cmd = m.state.List.Update(msg)
	return m, cmd
}

// handleBackNavigation handles the back navigation (q/esc).
func (m *model) handleBackNavigation() (tea.Model, tea.Cmd) {
	if m.state.CurrentView == ViewHelp {
		m.state.CurrentView = m.state.PreviousView
		if m.state.CurrentView == "" {
			m.state.CurrentView = ViewChannels
		}
		return m, nil
	}

	if m.state.CurrentView == ViewInspector {
		m.closeInspector()
	}

	if prev, ok := m.navigator.PopState(); ok {
		m.restoreState(prev)
		return m, nil
	}

	if m.state.CurrentView == ViewChannels {
		return m, tea.Quit
	}

	m.state.CurrentView = ViewChannels
	_ = m.viewManager.SwitchView(ViewChannels)
	return m, nil
}

// handleHelpToggle handles toggling the help view.
func (m *model) handleHelpToggle() (tea.Model, tea.Cmd) {
	if m.state.CurrentView == ViewHelp {
		m.state.CurrentView = m.state.PreviousView
		if m.state.CurrentView == "" {
			m.state.CurrentView = ViewChannels
		}
	} else {
		m.state.PreviousView = m.state.CurrentView
		m.state.CurrentView = ViewHelp
	}
	return m, nil
}

// restoreState restores a previous view state.
func (m *model) restoreState(vs ViewState) {
	m.state.CurrentView = vs.View
	m.state.SelectedChannel = vs.Channel

	m.navigator.ClearPath()
	for _, item := range vs.NavPath {
		m.navigator.AddToPath(item.Channel, item.Direction)
	}
	_ = m.viewManager.SwitchView(vs.View)

	switch vs.View {
	case ViewChannels:
		m.state.List.Select(vs.ListIndex)
	case ViewInspector:
		m.openChannel(vs.Channel)
		m.state.Inspector.Cursor = vs.Cursor
		m.state.Inspector.Viewport.SetYOffset(vs.ScrollOffset)
		syncViewport(m.state.Inspector)
	}
}

// openChannel shows the inspector of channel, creating its panel on first
// use. Panels are kept so collapse state and history survive leaving.
func (m *model) openChannel(channel string) {
	if m.state.Inspector != nil && m.state.Inspector.Channel != channel {
		m.closeInspector()
	}

	s, ok := m.panels[channel]
	if !ok {
		s = &InspectorState{
			Channel:  channel,
			Viewport: viewport.New(m.state.WindowWidth, 1),
			Canvas:   NewCanvas(m.state.WindowWidth, 1, m.opts.Layout.RowHeight, m.styles),
		}
		s.Panel = inspect.NewPanel(inspect.PanelOptions{
			Layout:      m.opts.Layout,
			Samples:     m.opts.Samples,
			CullMargin:  m.opts.CullMargin,
			StartMicros: m.opts.StartMicros,
			Charts:      channelCharts{channel: channel, charts: m.state.Charts},
			Container:   s,
			Logger:      logging.WithChannel("inspect", channel),
		})
		m.panels[channel] = s
		m.logger.Debug().Str("channel", channel).Msg("Inspector created")
	}

	m.state.SelectedChannel = channel
	m.state.Inspector = s
	m.state.CurrentView = ViewInspector
	_ = m.viewManager.SwitchView(ViewInspector)

	layoutInspector(m.state)
	m.state.Channels.Attach(channel, s.Panel)
	m.paintInspector(true)
}

func (m *model) closeInspector() {
	if s := m.state.Inspector; s != nil {
		m.state.Channels.Detach(s.Channel)
		m.state.Inspector = nil
	}
}

// paintInspector repaints the open inspector when a message is pending, a
// pointer event asked for it or force is set. A paint that changes the
// content height is repeated on a canvas of the new size.
func (m *model) paintInspector(force bool) {
	s := m.state.Inspector
	if s == nil || m.state.CurrentView == ViewHelp {
		return
	}
	if !force && !s.repaint && !s.Panel.Dirty() {
		return
	}
	s.repaint = false

	rh := m.opts.Layout.RowHeight
	cols := max(m.state.WindowWidth, 1)
	s.Canvas.Resize(cols, max(linesFor(s.ContentHeight, rh), 1))

	s.relayout = false
	s.Stats = s.Panel.Paint(s.Canvas)
	if need := max(linesFor(s.ContentHeight, rh), 1); s.relayout && need != s.Canvas.Lines() {
		s.Canvas.Resize(cols, need)
		s.Stats = s.Panel.Paint(s.Canvas)
	}
	s.relayout = false

	s.Viewport.SetContent(s.Canvas.String())
	s.Cursor = min(s.Cursor, s.Canvas.Lines()-1)
	syncViewport(s)
}

func linesFor(height, rowHeight int) int {
	return (height + rowHeight - 1) / rowHeight
}

// refreshChannels rebuilds the channel list from the live table, keeping
// the selection on the same channel.
func (m *model) refreshChannels() {
	if m.state.Channels == nil {
		return
	}
	infos := m.state.Channels.Snapshot()
	switch m.state.SortBy {
	case SortByRate:
		sort.SliceStable(infos, func(i, j int) bool {
			if infos[i].Rate != infos[j].Rate {
				return infos[i].Rate > infos[j].Rate
			}
			return infos[i].Name < infos[j].Name
		})
	default:
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	}

	items := make([]list.Item, len(infos))
	for i, info := range infos {
		items[i] = ChannelItem{Info: info}
	}
	m.state.AllItems = items
	m.applyFilter()
}

// applyFilter shows the channels matching the filter text.
func (m *model) applyFilter() {
	var selected string
	if ci, ok := m.state.List.SelectedItem().(ChannelItem); ok {
		selected = ci.Info.Name
	}

	items := m.filter.ApplyFilter(m.state.AllItems, m.filter.GetFilterText())
	m.state.List.SetItems(items)

	for i, item := range items {
		if item.(ChannelItem).Info.Name == selected {
			m.state.List.Select(i)
			break
		}
	}
}

// exportCmd writes the message shown by the inspector as JSON.
func (m *model) exportCmd() tea.Cmd {
	s := m.state.Inspector
	if s == nil || s.Panel.Current() == nil {
		m.setStatus(StatusWarning, "Nothing to export yet")
		return nil
	}
	snap := output.Snapshot{Channel: s.Channel, Value: s.Panel.Current()}
	if info, ok := m.state.Channels.Get(s.Channel); ok {
		snap.Type = info.Type
		snap.Received = info.LastSeen
	}
	name := fmt.Sprintf("%s-%s.json", exportName(s.Channel), time.Now().Format("20060102-150405"))
	path := filepath.Join(m.opts.ExportDir, name)
	formatter := m.output

	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{err: err}
		}
		err = formatter.Format(context.Background(), "json", snap, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return exportedMsg{path: path, err: err}
	}
}

// exportName turns a channel into a file name.
func exportName(channel string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.Trim(channel, "/"))
	if name == "" {
		return "channel"
	}
	return name
}

func (m *model) setStatus(kind, text string) {
	m.state.StatusType = kind
	m.state.StatusMessage = text
	switch kind {
	case StatusError:
		m.logger.Error().Msg(text)
	default:
		m.logger.Info().Msg(text)
	}
}
