package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikari-pl/go-msgspy/internal/channels"
	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

type fakeChannels struct {
	infos  []channels.Info
	latest map[string]introspect.Value
	sinks  map[string]channels.Sink
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{
		latest: make(map[string]introspect.Value),
		sinks:  make(map[string]channels.Sink),
	}
}

func (f *fakeChannels) add(name, typ string, rate float64, v introspect.Value) {
	f.infos = append(f.infos, channels.Info{Name: name, Type: typ, Count: 1, Rate: rate, LastSeen: time.Unix(100, 0)})
	f.latest[name] = v
}

func (f *fakeChannels) Snapshot() []channels.Info {
	return append([]channels.Info(nil), f.infos...)
}

func (f *fakeChannels) Top(n int) []channels.Info {
	return f.Snapshot()[:min(n, len(f.infos))]
}

func (f *fakeChannels) Get(channel string) (channels.Info, bool) {
	for _, info := range f.infos {
		if info.Name == channel {
			return info, true
		}
	}
	return channels.Info{}, false
}

func (f *fakeChannels) Latest(channel string) (introspect.Value, int64, bool) {
	v, ok := f.latest[channel]
	return v, 1_000_000, ok
}

func (f *fakeChannels) Attach(channel string, sink channels.Sink) {
	f.sinks[channel] = sink
	if v, ok := f.latest[channel]; ok {
		sink.Deliver(v, 1_000_000)
	}
}

func (f *fakeChannels) Detach(channel string) {
	delete(f.sinks, channel)
}

func imu(seq int64, x, y float64) introspect.Value {
	return &introspect.Struct{Type: "imu_t", Members: []introspect.Field{
		introspect.NewField("seq", "int64_t", false, introspect.Int("int64_t", seq)),
		introspect.NewField("accel", "vec_t", false, &introspect.Struct{Type: "vec_t", Members: []introspect.Field{
			introspect.NewField("x", "double", false, introspect.Float("double", x)),
			introspect.NewField("y", "double", false, introspect.Float("double", y)),
		}}),
	}}
}

func newTestModel(t *testing.T, opts Options) (*model, *fakeChannels) {
	t.Helper()
	src := newFakeChannels()
	src.add("imu", "imu_t", 5, imu(1, 0.5, -0.5))
	src.add("gps", "gps_t", 20, imu(2, 1, 1))

	opts.Logger = zerolog.Nop()
	styles := NewStyleManager(nil)
	filter := NewFilterManager()
	m := NewModel(src, opts, NewViewManager(styles, filter), NewNavigator(), styles, filter).(*model)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, src
}

// send runs msg through Update and feeds back the commands that complete
// immediately.
func send(m *model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	switch next := cmd().(type) {
	case openChannelMsg, exportedMsg:
		send(m, next)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func channelNames(m *model) []string {
	var names []string
	for _, item := range m.state.List.Items() {
		names = append(names, item.(ChannelItem).Info.Name)
	}
	return names
}

func openIMU(t *testing.T, m *model) *InspectorState {
	t.Helper()
	m.state.List.Select(1)
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewInspector, m.state.CurrentView)
	require.NotNil(t, m.state.Inspector)
	require.Equal(t, "imu", m.state.Inspector.Channel)
	return m.state.Inspector
}

// lineOfSection finds the header line of the section at path.
func lineOfSection(s *InspectorState, path string) int {
	rh := s.Panel.Layout().RowHeight
	for line := 0; line < s.Canvas.Lines(); line++ {
		if sec := s.Panel.Sections().SectionAt(line*rh + rh/2); sec != nil && sec.Path == path {
			return line
		}
	}
	return -1
}

func TestModelListsChannels(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	assert.Equal(t, ViewChannels, m.state.CurrentView)
	assert.Equal(t, []string{"gps", "imu"}, channelNames(m))

	send(m, runes("s"))
	assert.Equal(t, SortByRate, m.state.SortBy)
	assert.Equal(t, []string{"gps", "imu"}, channelNames(m))

	view := m.View()
	assert.Contains(t, view, "MSGSPY")
	assert.Contains(t, view, "2 channels")
}

func TestModelFilter(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	send(m, runes("/"))
	require.True(t, m.filter.IsActive())
	send(m, runes("i"))
	send(m, runes("m"))
	assert.Equal(t, []string{"imu"}, channelNames(m))

	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filter.IsActive())
	assert.Equal(t, "im", m.filter.GetFilterText())

	send(m, runes("/"))
	send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, []string{"gps", "imu"}, channelNames(m))
}

func TestModelOpenAndLeaveInspector(t *testing.T) {
	m, src := newTestModel(t, Options{})
	s := openIMU(t, m)

	assert.Same(t, s.Panel, src.sinks["imu"])
	require.NotNil(t, s.Panel.Current())
	assert.Positive(t, s.ContentHeight)
	assert.Equal(t, linesFor(s.ContentHeight, 4), s.Canvas.Lines())
	assert.Equal(t, 120, s.Canvas.Cols())
	assert.Equal(t, 40-inspectorTop-1, s.Viewport.Height)

	frame := strings.Join(s.Canvas.Plain(), "\n")
	assert.Contains(t, frame, "accel")
	assert.Contains(t, frame, "seq")
	assert.Contains(t, m.View(), "imu")
	assert.Equal(t, "imu", m.navigator.RenderPath())

	send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewChannels, m.state.CurrentView)
	assert.Nil(t, m.state.Inspector)
	assert.NotContains(t, src.sinks, "imu")
	assert.Equal(t, 1, m.state.List.Index())

	// The panel survives leaving.
	again := openIMU(t, m)
	assert.Same(t, s, again)
}

func TestModelPaintsOnFrame(t *testing.T) {
	m, src := newTestModel(t, Options{})
	s := openIMU(t, m)
	b := s.Panel.Sections().Lookup("root.accel").Sparkline("x")
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Series.Len())

	// No delivery, no paint.
	send(m, frameMsg(time.Now()))
	assert.Equal(t, 1, b.Series.Len())

	src.sinks["imu"].Deliver(imu(2, 0.75, -0.5), 2_000_000)
	src.sinks["imu"].Deliver(imu(3, 1.0, -0.5), 3_000_000)
	send(m, frameMsg(time.Now()))
	assert.Equal(t, 2, b.Series.Len())
	assert.Equal(t, inspect.Sample{T: 3, V: 1.0}, b.Series.At(1))
}

func TestModelToggleSection(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	s := openIMU(t, m)
	rows := s.Stats.Rows

	line := lineOfSection(s, "root.accel")
	require.GreaterOrEqual(t, line, 0)
	s.Cursor = line

	send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	sec := s.Panel.Sections().Lookup("root.accel")
	require.NotNil(t, sec)
	assert.True(t, sec.Collapsed)

	send(m, frameMsg(time.Now()))
	assert.Less(t, s.Stats.Rows, rows)

	send(m, runes("e"))
	send(m, frameMsg(time.Now()))
	assert.False(t, sec.Collapsed)
	assert.Equal(t, rows, s.Stats.Rows)

	send(m, runes("c"))
	assert.True(t, sec.Collapsed)
	assert.False(t, s.Panel.Sections().Lookup("root").Collapsed)
}

func TestModelCursorScrolls(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	s := openIMU(t, m)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: inspectorTop + 1 + 2})
	require.Equal(t, 2, s.Viewport.Height)

	send(m, tea.KeyMsg{Type: tea.KeyDown})
	send(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, s.Cursor)
	assert.Equal(t, 1, s.Viewport.YOffset)

	v, ok := s.Panel.Culler().Viewport()
	require.True(t, ok)
	assert.Equal(t, inspect.Viewport{Top: 4, Height: 8}, v)

	send(m, runes("g"))
	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, 0, s.Viewport.YOffset)
}

func tallObject(n int, v float64) introspect.Value {
	root := &introspect.Struct{Type: "tall_t"}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("f%02d", i)
		root.Members = append(root.Members, introspect.NewField(name, "double", false, introspect.Float("double", v+float64(i))))
	}
	return root
}

func hasBraille(line string) bool {
	for _, r := range line {
		if r > 0x2800 && r <= 0x28FF {
			return true
		}
	}
	return false
}

func TestModelScrollRepaintsQuietChannel(t *testing.T) {
	m, src := newTestModel(t, Options{CullMargin: 4})
	src.add("tall", "tall_t", 1, tallObject(30, 0))
	send(m, openChannelMsg{channel: "tall"})
	s := m.state.Inspector
	require.NotNil(t, s)

	// Everything fits: every field collects history.
	for i := 2; i <= 3; i++ {
		src.sinks["tall"].Deliver(tallObject(30, float64(i)), int64(i)*1_000_000)
		send(m, frameMsg(time.Now()))
	}
	last := s.Panel.Sections().Lookup("root").Sparkline("f29")
	require.NotNil(t, last)
	require.Equal(t, 3, last.Series.Len())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: inspectorTop + 1 + 4})
	require.Equal(t, 4, s.Viewport.Height)
	assert.False(t, s.Panel.Culler().IsLive(last))
	assert.False(t, hasBraille(s.Canvas.Plain()[last.YMax/4-1]))

	// The channel stays quiet while scrolling to the bottom.
	for i := 0; i < 12; i++ {
		send(m, tea.MouseMsg{X: 2, Y: inspectorTop, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	}
	assert.True(t, s.repaint)
	send(m, frameMsg(time.Now()))

	assert.False(t, s.repaint)
	assert.True(t, s.Panel.Culler().IsLive(last))
	assert.True(t, hasBraille(s.Canvas.Plain()[last.YMax/4-1]), "sparkline drawn after scrolling")
	assert.Equal(t, 3, last.Series.Len())
}

func TestModelClickCharts(t *testing.T) {
	m, _ := newTestModel(t, Options{Detailed: 1024})
	s := openIMU(t, m)
	e := s.Panel.Sections().Lookup("root.accel").Sparkline("x")
	require.NotNil(t, e)
	line := e.YMax/4 - 1
	click := tea.MouseMsg{
		X:      e.XMin/2 + 1,
		Y:      line + inspectorTop,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	}
	fullHeight := s.Viewport.Height

	send(m, click)

	require.Len(t, m.state.Charts.Windows(), 1)
	trace := m.state.Charts.Focused().Traces[0]
	assert.Equal(t, "imu:root.accel.x", trace.Field)
	assert.Same(t, e.Series, trace.Trace)
	assert.Equal(t, 1024, e.Series.Cap())
	assert.Less(t, s.Viewport.Height, fullHeight)
	assert.Contains(t, m.View(), "imu:root.accel.x")

	// The same field again only focuses; a right click adds an axis.
	send(m, click)
	assert.Len(t, m.state.Charts.Focused().Traces, 1)

	ey := s.Panel.Sections().Lookup("root.accel").Sparkline("y")
	click.Y = ey.YMax/4 - 1 + inspectorTop
	click.Button = tea.MouseButtonRight
	send(m, click)
	traces := m.state.Charts.Focused().Traces
	require.Len(t, traces, 2)
	assert.Equal(t, 1, traces[1].Axis)

	send(m, runes("x"))
	assert.Empty(t, m.state.Charts.Windows())
	assert.Equal(t, fullHeight, s.Viewport.Height)
}

func TestModelHover(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	s := openIMU(t, m)
	e := s.Panel.Sections().Lookup("root.accel").Sparkline("y")
	require.NotNil(t, e)

	send(m, tea.MouseMsg{X: 2, Y: e.YMax/4 - 1 + inspectorTop, Action: tea.MouseActionMotion})
	assert.True(t, s.repaint)
	send(m, frameMsg(time.Now()))
	assert.False(t, s.repaint)
	assert.True(t, e.IsHovering)

	// Outside the viewport nothing happens.
	send(m, tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionMotion})
	assert.False(t, s.repaint)
}

func TestModelExport(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestModel(t, Options{ExportDir: dir})
	openIMU(t, m)

	send(m, runes("E"))

	assert.Equal(t, StatusSuccess, m.state.StatusType)
	files, err := filepath.Glob(filepath.Join(dir, "imu-*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"channel": "imu"`)
	assert.Contains(t, string(data), `"seq": 1`)
}

func TestModelHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	send(m, runes("?"))
	assert.Equal(t, ViewHelp, m.state.CurrentView)
	assert.Contains(t, m.View(), "KEYBOARD SHORTCUTS")

	send(m, runes("?"))
	assert.Equal(t, ViewChannels, m.state.CurrentView)
}

func TestModelOpensConfiguredChannel(t *testing.T) {
	m, src := newTestModel(t, Options{Channel: "gps"})

	assert.Equal(t, ViewInspector, m.state.CurrentView)
	assert.Contains(t, src.sinks, "gps")
}

func TestExportName(t *testing.T) {
	tests := map[string]string{
		"imu":           "imu",
		"/fleet/motor/": "fleet_motor",
		"a b:c":         "a_b_c",
		"/":             "channel",
	}
	for in, want := range tests {
		assert.Equal(t, want, exportName(in), in)
	}
}
