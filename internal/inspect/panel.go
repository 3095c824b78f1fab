package inspect

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// Container hosts a panel and sizes the scroll region around it.
type Container interface {
	Relayout(height int)
}

// PanelOptions configures a Panel.
type PanelOptions struct {
	Layout Layout
	// Samples is the capacity of each sparkline buffer.
	Samples int
	// CullMargin is the distance in pixels beyond the viewport that still
	// counts as visible.
	CullMargin int
	// StartMicros is the time origin of sparkline timestamps.
	StartMicros int64

	Charts    ChartManager
	Container Container
	Logger    zerolog.Logger
}

// Panel is the inspector for one stream of objects. Deliver may be called
// from any goroutine; every other method belongs to the UI goroutine.
type Panel struct {
	mu      sync.Mutex
	pending introspect.Value
	micros  int64
	dirty   bool

	start   int64
	current introspect.Value
	now     float64
	height  int

	sections    *SectionStore
	culler      *ViewportCuller
	renderer    *TreeRenderer
	interaction *InteractionController
	charts      ChartManager
	container   Container
}

// NewPanel creates an empty panel.
func NewPanel(opts PanelOptions) *Panel {
	sections := NewSectionStore()
	culler := NewViewportCuller(opts.CullMargin)
	return &Panel{
		start:       opts.StartMicros,
		sections:    sections,
		culler:      culler,
		renderer:    NewTreeRenderer(sections, culler, opts.Layout, opts.Samples, opts.Logger),
		interaction: NewInteractionController(sections),
		charts:      opts.Charts,
		container:   opts.Container,
	}
}

// Deliver replaces the pending object. Only the latest delivery before a
// paint is applied.
func (p *Panel) Deliver(obj introspect.Value, arrivalMicros int64) {
	p.mu.Lock()
	p.pending = obj
	p.micros = arrivalMicros
	p.dirty = true
	p.mu.Unlock()
}

// Dirty reports whether a delivery is waiting for the next paint.
func (p *Panel) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Paint renders the current object. A pending delivery is taken first and
// its samples are appended exactly once.
func (p *Panel) Paint(c Canvas) FrameStats {
	p.mu.Lock()
	apply := p.dirty
	if apply {
		p.current = p.pending
		p.now = float64(p.micros-p.start) / 1e6
		p.pending = nil
		p.dirty = false
	}
	p.mu.Unlock()

	stats := p.renderer.Render(c, Frame{
		Object: p.current,
		Now:    p.now,
		Apply:  apply,
		Hover:  p.interaction.Hover(),
	})

	resized := stats.Height != p.height
	if resized {
		p.height = stats.Height
		if p.container != nil {
			p.container.Relayout(stats.Height)
		}
	}
	if v, ok := p.culler.Viewport(); ok && (resized || stats.Created > 0) {
		p.culler.Update(v, p.sections.Sections())
	}
	return stats
}

// SetViewport recomputes the live set and returns its size.
func (p *Panel) SetViewport(v Viewport) int {
	return p.culler.Update(v, p.sections.Sections())
}

// PointerMoved updates the hover row.
func (p *Panel) PointerMoved(x, y int) Outcome {
	return p.interaction.PointerMove(x, y)
}

// Clicked handles a button press, toggling a section or asking the chart
// manager to show a trace.
func (p *Panel) Clicked(x, y int, b Button) Outcome {
	out := p.interaction.Click(x, y, b)
	if out.Toggle != nil {
		p.sections.Toggle(out.Toggle)
	}
	if out.Chart != nil && p.charts != nil {
		p.charts.Show(*out.Chart)
	}
	return out
}

// ToggleSectionAt flips the section whose box spans y.
func (p *Panel) ToggleSectionAt(y int) bool {
	s := p.sections.SectionAt(y)
	if s == nil {
		return false
	}
	p.sections.Toggle(s)
	return true
}

// SetAllCollapsed collapses or expands every section below the root.
func (p *Panel) SetAllCollapsed(collapsed bool) {
	p.sections.SetAllCollapsed(collapsed)
}

// Height returns the content height of the last paint.
func (p *Panel) Height() int { return p.height }

// Now returns the elapsed time of the current object in seconds.
func (p *Panel) Now() float64 { return p.now }

// Current returns the object shown by the last paint.
func (p *Panel) Current() introspect.Value { return p.current }

// Sections returns the section store.
func (p *Panel) Sections() *SectionStore { return p.sections }

// Culler returns the viewport culler.
func (p *Panel) Culler() *ViewportCuller { return p.culler }

// Layout returns the paint metrics.
func (p *Panel) Layout() Layout { return p.renderer.Layout() }
