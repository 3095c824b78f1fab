package inspect

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// rootPath is the structural path of the top-level value.
const rootPath = "root"

// Header glyphs.
const (
	IconExpanded  = "▼"
	IconCollapsed = "▶"
)

// Frame is the input of one paint pass.
type Frame struct {
	Object introspect.Value
	// Now is the elapsed time of Object in seconds; the sparkline window ends here.
	Now float64
	// Apply appends the numeric leaves of Object to their series.
	Apply bool
	Hover Hover
}

// FrameStats summarises one paint pass.
type FrameStats struct {
	// Height is the total content height in pixels.
	Height   int
	Rows     int
	Sections int
	Created  int
	Appended int
	Drawn    int
	Culled   int
	Skipped  int
}

// TreeRenderer paints a value tree onto a Canvas and records the geometry
// later used for hit testing and culling.
type TreeRenderer struct {
	sections *SectionStore
	culler   *ViewportCuller
	layout   Layout
	samples  int
	logger   zerolog.Logger

	failed map[string]struct{}
}

// NewTreeRenderer creates a renderer over shared section and culling state.
// samples is the capacity of every new sparkline buffer.
func NewTreeRenderer(sections *SectionStore, culler *ViewportCuller, layout Layout, samples int, logger zerolog.Logger) *TreeRenderer {
	if samples < 2 {
		samples = 2
	}
	return &TreeRenderer{
		sections: sections,
		culler:   culler,
		layout:   layout,
		samples:  samples,
		logger:   logger,
		failed:   make(map[string]struct{}),
	}
}

// Layout returns the renderer metrics.
func (r *TreeRenderer) Layout() Layout { return r.layout }

// Render runs one full paint pass.
func (r *TreeRenderer) Render(c Canvas, f Frame) FrameStats {
	ps := &paintState{
		r:     r,
		c:     c,
		frame: f,
		width: c.Width(),
		x:     r.layout.columns(c.Width()),
		y:     r.layout.RowHeight,
	}
	c.FillRect(0, 0, c.Width(), c.Height(), ColorBackground)

	r.sections.beginPass()
	if f.Object == nil {
		ps.drawStrings("(null)", "", "(null)", false)
	} else {
		ps.recurse("", f.Object.TypeName(), f.Object, false, nil, rootPath)
	}
	r.sections.endPass()

	ps.stats.Height = ps.y
	ps.stats.Sections = len(r.sections.Sections())
	return ps.stats
}

type paintState struct {
	r     *TreeRenderer
	c     Canvas
	frame Frame
	width int
	x     [4]int
	y     int

	indent        int
	colorLevel    int
	collapseDepth int

	stats FrameStats
}

type openSection struct {
	sec     *Section
	visible bool
}

func (ps *paintState) rowTop() int { return ps.y - ps.r.layout.RowHeight + 1 }

func (ps *paintState) textX() int { return ps.x[0] + ps.indent*ps.r.layout.IndentWidth }

func (ps *paintState) bandX() int {
	iw := ps.r.layout.IndentWidth
	return ps.x[0] + ps.indent*iw - iw/2
}

func (ps *paintState) spacer() {
	if ps.collapseDepth > 0 {
		return
	}
	ps.y += ps.r.layout.SpacerHeight
}

func (ps *paintState) beginColorBlock() {
	if ps.collapseDepth > 0 {
		return
	}
	ps.colorLevel++
	ps.fillBand()
}

func (ps *paintState) endColorBlock() {
	if ps.collapseDepth > 0 {
		return
	}
	ps.colorLevel--
	ps.fillBand()
}

func (ps *paintState) fillBand() {
	x, top := ps.bandX(), ps.rowTop()
	ps.c.FillRect(x, top, ps.width-x, ps.c.Height()-top+1, BandColor(ps.colorLevel))
}

func (ps *paintState) beginSection(typ, name, value, path string) openSection {
	s := ps.r.sections.acquire(path)
	visible := ps.collapseDepth == 0
	if visible {
		ps.beginColorBlock()
		ps.spacer()

		rh := ps.r.layout.RowHeight
		tok := IconExpanded
		if s.Collapsed {
			tok = IconCollapsed
		}
		if i := strings.LastIndexByte(typ, '.'); i >= 0 {
			typ = typ[i+1:]
		}
		y0 := ps.rowTop() - 1
		tokX := ps.textX()
		typeX := tokX + ps.c.TextWidth(tok+" ", FontBold)
		ps.c.DrawText(tok, tokX, ps.y, FontBold, ColorText)
		ps.c.DrawText(typ, typeX, ps.y, FontBold, ColorText)
		if typeX+ps.c.TextWidth(typ, FontBold) > ps.x[1] {
			ps.y += rh
			ps.stats.Rows++
		}
		ps.c.DrawText(name, ps.x[1], ps.y, FontBold, ColorText)
		if value != "" {
			if ps.x[1]+ps.c.TextWidth(name, FontBold) > ps.x[2] {
				ps.y += rh
				ps.stats.Rows++
			}
			ps.c.DrawText(value, ps.x[2], ps.y, FontBold, ColorText)
		}
		s.Box = Rect{X0: ps.x[0], Y0: y0, X1: ps.width, Y1: ps.y}
		ps.y += rh
		ps.stats.Rows++
	} else {
		s.Box = Rect{}
	}

	ps.indent++
	if s.Collapsed {
		ps.collapseDepth++
	}
	return openSection{sec: s, visible: visible}
}

func (ps *paintState) endSection(o openSection) {
	if o.visible {
		o.sec.Box.Y1 = max(o.sec.Box.Y1, ps.y-ps.r.layout.RowHeight)
	}
	if o.sec.Collapsed {
		ps.collapseDepth--
	}
	ps.indent--

	ps.spacer()
	ps.endColorBlock()
	ps.spacer()
}

func (ps *paintState) drawStrings(typ, name, value string, static bool) {
	if ps.collapseDepth > 0 {
		return
	}
	f := FontPlain
	if static {
		f = FontItalic
	}
	ps.c.DrawText(typ, ps.textX(), ps.y, f, ColorText)
	ps.c.DrawText(name, ps.x[1], ps.y, f, ColorText)
	ps.c.DrawText(value, ps.x[2], ps.y, f, ColorText)
	ps.y += ps.r.layout.RowHeight
	ps.stats.Rows++
}

func (ps *paintState) skip(path string, err error) {
	ps.stats.Skipped++
	if _, seen := ps.r.failed[path]; seen {
		ps.r.logger.Debug().Str("path", path).Err(err).Msg("field unreadable")
		return
	}
	ps.r.failed[path] = struct{}{}
	ps.r.logger.Warn().Str("path", path).Err(err).Msg("skipping unreadable field")
}

func (ps *paintState) recurse(name, typ string, v introspect.Value, static bool, sec *Section, path string) {
	if v == nil || v.Kind() == introspect.KindNull {
		if typ == "" {
			typ = "(null)"
		}
		ps.drawStrings(typ, name, "(null)", static)
		return
	}

	switch v.Kind() {
	case introspect.KindNumber:
		if n, ok := v.(introspect.Numeric); ok {
			ps.number(name, n, static, sec)
			return
		}
		ps.drawStrings(v.TypeName(), name, introspect.Text(v), static)
	case introspect.KindBool, introspect.KindEnum, introspect.KindString:
		ps.drawStrings(v.TypeName(), name, introspect.Text(v), static)
	case introspect.KindSequence:
		seq, ok := v.(introspect.Sequence)
		if !ok {
			ps.skip(path, fmt.Errorf("%s: sequence kind without indexed access", v.TypeName()))
			return
		}
		ps.sequence(name, seq, static, path)
	case introspect.KindRecord:
		rec, ok := v.(introspect.Record)
		if !ok {
			ps.skip(path, fmt.Errorf("%s: record kind without fields", v.TypeName()))
			return
		}
		ps.record(name, rec, static, path)
	default:
		ps.drawStrings(v.TypeName(), name, "", static)
	}
}

func (ps *paintState) sequence(name string, seq introspect.Sequence, static bool, path string) {
	n := seq.Len()
	open := ps.beginSection(seq.ElemType()+"[]", name+"["+strconv.Itoa(n)+"]", "", path)
	for i := 0; i < n; i++ {
		idx := "[" + strconv.Itoa(i) + "]"
		child, err := seq.At(i)
		if err != nil {
			ps.skip(path+idx, err)
			continue
		}
		ps.recurse(name+idx, seq.ElemType(), child, static, open.sec, path+idx)
	}
	ps.endSection(open)
}

func (ps *paintState) record(name string, rec introspect.Record, static bool, path string) {
	open := ps.beginSection(rec.TypeName(), name, "", path)
	for _, f := range rec.Fields() {
		fp := path + "." + f.Name
		fv, err := f.Value()
		if err != nil {
			ps.skip(fp, err)
			continue
		}
		ps.recurse(f.Name, f.Type, fv, static || f.Static, open.sec, fp)
	}
	ps.endSection(open)
}

// number draws a numeric row. Numbers inside a section get a sparkline;
// static fields and top-level scalars are plain text.
func (ps *paintState) number(name string, n introspect.Numeric, static bool, sec *Section) {
	v := n.Float64()
	if sec == nil || static || math.IsNaN(v) || math.IsInf(v, 0) {
		ps.drawStrings(n.TypeName(), name, n.Text(), static)
		return
	}

	l := ps.r.layout
	e := sec.Sparkline(name)
	fresh := e == nil
	if fresh {
		e = sec.addSparkline(name, ps.r.samples)
		ps.stats.Created++
	}
	// Collapsed rows take the position of the body under their header.
	e.YMin, e.YMax = ps.y-l.RowHeight, ps.y
	if !fresh && !ps.r.culler.IsLive(e) {
		ps.stats.Culled++
		e.IsHovering = false
		ps.drawStrings(n.TypeName(), name, n.Text(), static)
		return
	}
	if ps.frame.Apply && e.Series.Append(ps.frame.Now, v) {
		ps.stats.Appended++
	}
	if ps.collapseDepth > 0 {
		e.IsHovering = false
		return
	}

	hovering := ps.frame.Hover.matches(sec, name)
	e.IsHovering = hovering
	fg := ColorText
	if hovering {
		fg = ColorHover
	}
	ps.c.DrawText(n.TypeName(), ps.textX(), ps.y, FontPlain, fg)
	ps.c.DrawText(name, ps.x[1], ps.y, FontPlain, fg)
	ps.c.DrawText(n.Text(), ps.x[2], ps.y, FontPlain, fg)

	e.XMin, e.XMax = ps.x[3], ps.x[3]+l.Spark.Width
	DrawSparkline(ps.c, e.Series, ps.x[3], ps.y, l.Spark, ps.frame.Now, hovering)
	ps.stats.Drawn++

	ps.y += l.RowHeight
	ps.stats.Rows++
}
