package inspect

// Viewport is the visible vertical pixel range of the panel.
type Viewport struct {
	Top    int
	Height int
}

// Bottom returns the first pixel row below the viewport.
func (v Viewport) Bottom() int { return v.Top + v.Height }

// ViewportCuller tracks which sparklines are close enough to the visible
// region to be worth appending to and drawing.
type ViewportCuller struct {
	margin int
	known  bool
	view   Viewport
	live   map[*SparklineEntry]struct{}
}

// NewViewportCuller creates a culler keeping sparklines within margin pixels
// of the viewport live. Until a viewport is supplied every entry is live.
func NewViewportCuller(margin int) *ViewportCuller {
	return &ViewportCuller{margin: margin, live: make(map[*SparklineEntry]struct{})}
}

// Update recomputes the live set for a new viewport from the geometry
// recorded by the last paint.
func (c *ViewportCuller) Update(v Viewport, sections []*Section) int {
	c.known = true
	c.view = v
	clear(c.live)
	lo, hi := v.Top-c.margin, v.Bottom()+c.margin
	for _, s := range sections {
		for _, e := range s.Sparklines() {
			if e.YMin > lo && e.YMax < hi {
				c.live[e] = struct{}{}
			}
		}
	}
	return len(c.live)
}

// IsLive reports whether e may be appended to and drawn.
func (c *ViewportCuller) IsLive(e *SparklineEntry) bool {
	if !c.known {
		return true
	}
	_, ok := c.live[e]
	return ok
}

// Viewport returns the last supplied viewport.
func (c *ViewportCuller) Viewport() (Viewport, bool) {
	return c.view, c.known
}

// LiveCount returns the size of the live set.
func (c *ViewportCuller) LiveCount() int { return len(c.live) }
