package inspect

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

type fakeCharts struct {
	requests []ChartRequest
}

func (f *fakeCharts) Show(req ChartRequest) { f.requests = append(f.requests, req) }

type fakeContainer struct {
	heights []int
}

func (f *fakeContainer) Relayout(height int) { f.heights = append(f.heights, height) }

func newTestPanel() (*Panel, *fakeCharts, *fakeContainer) {
	charts := &fakeCharts{}
	container := &fakeContainer{}
	p := NewPanel(PanelOptions{
		Layout:     DefaultLayout(),
		Samples:    8,
		CullMargin: 500,
		Charts:     charts,
		Container:  container,
		Logger:     zerolog.Nop(),
	})
	return p, charts, container
}

func pair(a int64, b float64) introspect.Value {
	return record("exlcm.pair_t",
		field("a", introspect.Int("int32", a)),
		field("b", introspect.Float("double", b)),
	)
}

func TestPanelTwoDeliveries(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)

	p.Deliver(pair(5, 2.5), 1_000_000)
	p.Paint(c)
	p.Deliver(pair(5, 3.0), 2_000_000)
	c.reset()
	p.Paint(c)

	root := p.Sections().Lookup(rootPath)
	require.NotNil(t, root)
	b := root.Sparkline("b")
	require.NotNil(t, b)
	assert.Equal(t, []Sample{{1, 2.5}, {2, 3.0}}, b.Series.Samples())

	lines := c.linesIn(b)
	require.Len(t, lines, 1, "one segment between the two samples")
	assert.Less(t, lines[0].y1, lines[0].y0, "segment rises")
	assert.Less(t, lines[0].x0, lines[0].x1)

	_, ok := c.text("5")
	assert.True(t, ok)
	a := root.Sparkline("a")
	for _, l := range c.linesIn(a) {
		assert.Equal(t, l.y0, l.y1, "a constant field draws a flat line")
	}
	assert.Equal(t, 2.0, p.Now())
}

func TestPanelAppendsOncePerDelivery(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)

	p.Deliver(pair(1, 1), 1_000_000)
	assert.True(t, p.Dirty())
	for range 3 {
		p.Paint(c)
	}
	assert.False(t, p.Dirty())
	assert.Equal(t, 1, p.Sections().Lookup(rootPath).Sparkline("b").Series.Len())
}

func TestPanelKeepsOnlyLatestDelivery(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)

	p.Deliver(pair(1, 1), 1_000_000)
	p.Deliver(pair(2, 2), 2_000_000)
	p.Deliver(pair(3, 3), 3_000_000)
	p.Paint(c)

	assert.Equal(t, []Sample{{3, 3}}, p.Sections().Lookup(rootPath).Sparkline("b").Series.Samples())
}

func TestPanelCollapsedStateSurvivesRepaints(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)
	obj := record("t", field("pose", record("pose_t", field("x", introspect.Int("int32", 1)))))

	p.Deliver(obj, 0)
	p.Paint(c)
	pose := p.Sections().Lookup("root.pose")
	require.True(t, p.ToggleSectionAt(pose.Box.Y0+2))

	for i := range 5 {
		p.Deliver(obj, int64(i+1)*1_000_000)
		p.Paint(c)
		assert.True(t, pose.Collapsed)
	}
	assert.Equal(t, 6, pose.Sparkline("x").Series.Len())
}

func TestPanelRelayoutOnlyWhenHeightChanges(t *testing.T) {
	p, _, container := newTestPanel()
	c := newRecCanvas(200, 100)
	obj := record("t", field("pose", record("pose_t", field("x", introspect.Int("int32", 1)))))

	p.Deliver(obj, 0)
	p.Paint(c)
	p.Paint(c)
	require.Equal(t, []int{16}, container.heights)

	p.SetAllCollapsed(true)
	p.Paint(c)
	p.Paint(c)
	assert.Equal(t, []int{16, 12}, container.heights)
	assert.Equal(t, 12, p.Height())
}

func TestPanelCullsFarSparklines(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)

	pad := &introspect.List{Elem: "string"}
	for range 2700 {
		pad.Items = append(pad.Items, introspect.String{V: "-"})
	}
	obj := func(b float64) introspect.Value {
		return record("t", field("pad", pad), field("b", introspect.Float("double", b)))
	}

	p.Deliver(obj(2.5), 1_000_000)
	p.Paint(c)
	b := p.Sections().Lookup(rootPath).Sparkline("b")
	require.NotNil(t, b)
	require.Greater(t, b.YMin, 10_000+500)

	assert.Zero(t, p.SetViewport(Viewport{Top: 0, Height: 100}))

	p.Deliver(obj(3), 2_000_000)
	c.reset()
	stats := p.Paint(c)

	assert.Equal(t, 1, stats.Culled)
	assert.Zero(t, stats.Appended)
	assert.Equal(t, 1, b.Series.Len(), "no sample appended outside the live set")
	row, ok := c.text("3")
	require.True(t, ok, "culled row still renders its value")
	assert.Equal(t, b.YMax, row.y0)
	assert.Empty(t, c.linesIn(b))

	assert.Equal(t, 1, p.SetViewport(Viewport{Top: b.YMin - 50, Height: 100}))
	p.Deliver(obj(4), 3_000_000)
	stats = p.Paint(c)
	assert.Equal(t, 1, stats.Appended)
}

func TestPanelPointerMoveHovers(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)
	p.Deliver(pair(1, 1), 0)
	p.Paint(c)
	b := p.Sections().Lookup(rootPath).Sparkline("b")

	out := p.PointerMoved(10, b.YMax-1)
	assert.True(t, out.Repaint)
	assert.True(t, out.HoverChanged)
	assert.Equal(t, "b", out.Hover.Field)

	c.reset()
	p.Paint(c)
	assert.True(t, b.IsHovering)
	txt, _ := c.text("b")
	assert.Equal(t, ColorHover, txt.color)

	out = p.PointerMoved(10, b.YMax-1)
	assert.False(t, out.HoverChanged)

	out = p.PointerMoved(10, 90)
	assert.True(t, out.HoverChanged)
	assert.False(t, out.Hover.Active)
	p.Paint(c)
	assert.False(t, b.IsHovering)
}

func TestPanelPointerMoveIgnoresCollapsedSections(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)
	p.Deliver(pair(1, 1), 0)
	p.Paint(c)
	b := p.Sections().Lookup(rootPath).Sparkline("b")
	y := b.YMax - 1

	p.Sections().Toggle(p.Sections().Lookup(rootPath))
	out := p.PointerMoved(10, y)
	assert.False(t, out.Hover.Active)
}

func TestPanelClickRequestsCharts(t *testing.T) {
	tests := []struct {
		name   string
		button Button
		want   ChartMode
	}{
		{"primary", ButtonPrimary, ChartSameAxis},
		{"secondary", ButtonSecondary, ChartNewAxis},
		{"middle", ButtonMiddle, ChartNewWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, charts, _ := newTestPanel()
			c := newRecCanvas(200, 100)
			p.Deliver(pair(1, 1), 0)
			p.Paint(c)
			b := p.Sections().Lookup(rootPath).Sparkline("b")

			out := p.Clicked(b.XMin+2, b.YMax-1, tt.button)
			require.NotNil(t, out.Chart)
			assert.Nil(t, out.Toggle)
			require.Len(t, charts.requests, 1)
			req := charts.requests[0]
			assert.Equal(t, tt.want, req.Mode)
			assert.Equal(t, "root.b", req.Field)
			assert.Same(t, b.Series, req.Trace)
		})
	}
}

func TestPanelClickOutsideSparklineToggles(t *testing.T) {
	p, charts, _ := newTestPanel()
	c := newRecCanvas(200, 100)
	obj := record("t", field("pose", record("pose_t", field("x", introspect.Int("int32", 1)))))
	p.Deliver(obj, 0)
	p.Paint(c)
	pose := p.Sections().Lookup("root.pose")

	out := p.Clicked(10, pose.Box.Y0+2, ButtonPrimary)
	assert.Same(t, pose, out.Toggle)
	assert.True(t, out.Repaint)
	assert.True(t, pose.Collapsed)
	assert.Empty(t, charts.requests)

	p.Paint(c)
	p.Clicked(10, pose.Box.Y0+2, ButtonPrimary)
	assert.False(t, pose.Collapsed)
}

func TestPanelConcurrentDeliveries(t *testing.T) {
	p, _, _ := newTestPanel()
	c := newRecCanvas(200, 100)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				p.Deliver(pair(int64(g), float64(i)), int64(i))
			}
		}()
	}
	for range 50 {
		p.Paint(c)
		c.reset()
	}
	wg.Wait()
	p.Paint(c)

	s := p.Sections().Lookup(rootPath).Sparkline("b").Series
	assert.LessOrEqual(t, s.Len(), s.Cap())
	assert.False(t, p.Dirty())
}
