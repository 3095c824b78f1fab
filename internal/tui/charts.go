package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
)

// ChartTrace is one field plotted in a chart window.
type ChartTrace struct {
	Field string
	Trace inspect.TraceHandle
	Axis  int
}

// ChartWindow is a detailed chart of one or more traces.
type ChartWindow struct {
	ID     uuid.UUID
	Traces []ChartTrace
	focus  uint64
}

// Title lists the plotted fields, grouped by axis.
func (w *ChartWindow) Title() string {
	var axes []string
	for axis := 0; axis <= w.maxAxis(); axis++ {
		var fields []string
		for _, t := range w.Traces {
			if t.Axis == axis {
				fields = append(fields, t.Field)
			}
		}
		if len(fields) > 0 {
			axes = append(axes, strings.Join(fields, ", "))
		}
	}
	return strings.Join(axes, " │ ")
}

func (w *ChartWindow) maxAxis() int {
	m := -1
	for _, t := range w.Traces {
		m = max(m, t.Axis)
	}
	return m
}

func (w *ChartWindow) contains(h inspect.TraceHandle) bool {
	for _, t := range w.Traces {
		if t.Trace == h {
			return true
		}
	}
	return false
}

// ChartManager implements inspect.ChartManager with windows rendered as
// braille line charts below the inspector. It belongs to the UI goroutine.
type ChartManager struct {
	detailed int
	windows  []*ChartWindow
	seq      uint64
	logger   zerolog.Logger
}

// NewChartManager creates a manager that raises every charted trace to
// detailed samples.
func NewChartManager(detailed int, logger zerolog.Logger) *ChartManager {
	return &ChartManager{detailed: detailed, logger: logger}
}

// Show implements inspect.ChartManager. A trace that is already charted
// brings its window to the front.
func (m *ChartManager) Show(req inspect.ChartRequest) {
	if req.Trace == nil {
		return
	}
	for _, w := range m.windows {
		if w.contains(req.Trace) {
			m.focus(w)
			m.logger.Debug().Str("field", req.Field).Str("window", w.ID.String()).Msg("Chart already open")
			return
		}
	}

	if m.detailed > 0 {
		req.Trace.SetCapacity(m.detailed)
	}

	target := m.Focused()
	axis := 0
	switch req.Mode {
	case inspect.ChartNewWindow:
		target = nil
	case inspect.ChartNewAxis:
		if target != nil {
			axis = target.maxAxis() + 1
		}
	}
	if target == nil {
		target = &ChartWindow{ID: uuid.New()}
		m.windows = append(m.windows, target)
	}
	target.Traces = append(target.Traces, ChartTrace{Field: req.Field, Trace: req.Trace, Axis: axis})
	m.focus(target)

	m.logger.Debug().
		Str("field", req.Field).
		Str("mode", req.Mode.String()).
		Str("window", target.ID.String()).
		Int("axis", axis).
		Msg("Chart trace added")
}

func (m *ChartManager) focus(w *ChartWindow) {
	m.seq++
	w.focus = m.seq
}

// Windows returns the open windows in opening order.
func (m *ChartManager) Windows() []*ChartWindow {
	return m.windows
}

// Focused returns the most recently focused window, or nil.
func (m *ChartManager) Focused() *ChartWindow {
	var best *ChartWindow
	for _, w := range m.windows {
		if best == nil || w.focus > best.focus {
			best = w
		}
	}
	return best
}

// CloseFocused closes the focused window and focuses the one opened before
// it.
func (m *ChartManager) CloseFocused() bool {
	f := m.Focused()
	if f == nil {
		return false
	}
	for i, w := range m.windows {
		if w == f {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			if len(m.windows) > 0 {
				m.focus(m.windows[max(i-1, 0)])
			}
			return true
		}
	}
	return false
}

// FocusNext cycles the focus through the windows in opening order.
func (m *ChartManager) FocusNext() {
	f := m.Focused()
	for i, w := range m.windows {
		if w == f {
			m.focus(m.windows[(i+1)%len(m.windows)])
			return
		}
	}
}

// Render draws the focused window into width x height cells. The first line
// is the title; the rest is the chart.
func (m *ChartManager) Render(width, height int, styles StyleManager) string {
	w := m.Focused()
	if w == nil || width < 4 || height < 2 {
		return ""
	}
	st := styles.GetStyles()

	index := 0
	for i, win := range m.windows {
		if win == w {
			index = i + 1
		}
	}
	data, lo, hi := m.resample(w, width*2)
	title := fmt.Sprintf("%s %s  [%s … %s]  %d/%d",
		"📈", w.Title(), humanize.SIWithDigits(lo, 2, ""), humanize.SIWithDigits(hi, 2, ""), index, len(m.windows))
	title = st.ChartTitle.MaxWidth(width).Render(title)

	body := ""
	if data != nil {
		p := plot.NewCanvas(width, height-1)
		p.NumDataPoints = width * 2
		p.ShowAxis = false
		p.LineColors = lineColors(len(data))
		p.Fill(data)
		body = p.String()
	}
	if body == "" {
		body = strings.Repeat("\n", height-2)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// lineColors highlights the newest trace and dims the others.
func lineColors(n int) []plot.Color {
	var highlight, dim plot.Color
	if lipgloss.DefaultRenderer().HasDarkBackground() {
		highlight, dim = plot.Red, plot.DimGray
	} else {
		highlight, dim = plot.Black, plot.LightGray
	}
	colors := make([]plot.Color, n)
	for i := range colors {
		colors[i] = dim
	}
	if n > 0 {
		colors[n-1] = highlight
	}
	return colors
}

// resample holds each trace at points evenly spaced over the time span of
// the window. Traces on axes other than the first are rescaled onto the
// value range of the first axis. lo and hi are the range of the first axis.
func (m *ChartManager) resample(w *ChartWindow, points int) (data [][]float64, lo, hi float64) {
	t0, t1 := math.Inf(1), math.Inf(-1)
	for _, t := range w.Traces {
		if n := t.Trace.Len(); n > 0 {
			t0 = math.Min(t0, t.Trace.At(0).T)
			t1 = math.Max(t1, t.Trace.At(n-1).T)
		}
	}
	if math.IsInf(t0, 0) || points < 2 {
		return nil, 0, 0
	}

	type axisRange struct{ lo, hi float64 }
	ranges := map[int]axisRange{}
	data = make([][]float64, len(w.Traces))
	for i, t := range w.Traces {
		data[i] = holdSamples(t.Trace, t0, t1, points)
		r, ok := ranges[t.Axis]
		if !ok {
			r = axisRange{math.Inf(1), math.Inf(-1)}
		}
		for _, v := range data[i] {
			r.lo, r.hi = math.Min(r.lo, v), math.Max(r.hi, v)
		}
		ranges[t.Axis] = r
	}

	base, ok := ranges[0]
	if !ok {
		return data, 0, 0
	}
	for i, t := range w.Traces {
		r := ranges[t.Axis]
		if t.Axis == 0 || r.hi == r.lo {
			continue
		}
		scale := (base.hi - base.lo) / (r.hi - r.lo)
		for j, v := range data[i] {
			data[i][j] = base.lo + (v-r.lo)*scale
		}
	}
	return data, base.lo, base.hi
}

// holdSamples returns the value of h at points instants from t0 to t1,
// holding each sample until the next one.
func holdSamples(h inspect.TraceHandle, t0, t1 float64, points int) []float64 {
	out := make([]float64, points)
	n := h.Len()
	if n == 0 {
		return out
	}
	step := (t1 - t0) / float64(points-1)
	j := 0
	for k := range out {
		t := t0 + float64(k)*step
		for j+1 < n && h.At(j+1).T <= t {
			j++
		}
		out[k] = h.At(j).V
	}
	return out
}

// channelCharts qualifies chart fields with the channel they came from.
type channelCharts struct {
	channel string
	charts  *ChartManager
}

// Show implements inspect.ChartManager.
func (c channelCharts) Show(req inspect.ChartRequest) {
	req.Field = c.channel + ":" + req.Field
	c.charts.Show(req)
}
