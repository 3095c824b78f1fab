package inspect

import "math"

// SparklineEntry is the rolling chart state of one numeric field.
type SparklineEntry struct {
	Name   string
	Series *Series

	// Geometry of the last drawn row, used for hit testing and culling.
	XMin, XMax int
	YMin, YMax int

	IsHovering bool
}

// Trace returns the handle passed to the chart window manager.
func (e *SparklineEntry) Trace() TraceHandle { return e.Series }

// SparkStyle is the fixed footprint of every sparkline.
type SparkStyle struct {
	Width  int
	Height int
	// Window is the trailing time span shown, in seconds.
	Window float64
}

const markerSize = 3

// DrawSparkline draws s into the box whose bottom-left corner is (x, y). The
// time axis ends at now; the value axis auto-scales to the buffered samples.
func DrawSparkline(c Canvas, s *Series, x, y int, st SparkStyle, now float64, hovering bool) {
	if s == nil || s.Len() < 2 || st.Window <= 0 {
		return
	}
	minT, maxT, minV, maxV := s.Bounds()
	if maxT == minT {
		return
	}

	line, point := ColorLine, ColorPoint
	if hovering {
		line, point = point, line
	}

	earliest := now - st.Window
	xscale := float64(st.Width) / st.Window
	project := func(t float64) float64 { return (t-earliest)*xscale + float64(x) }

	left, right := float64(x), float64(x+st.Width)
	n := s.Len()
	if project(s.At(n-1).T) < left {
		// every sample is older than the window
		return
	}
	marker := func(mx, my float64) {
		mx = math.Min(math.Max(mx, left), right)
		c.FillDot(int(mx)-1, int(my)-1, markerSize, point)
	}

	if maxV == minV {
		mid := y - st.Height/2
		first := 0
		for project(s.At(first).T) < left {
			first++
		}
		start := project(s.At(first).T)
		c.DrawLine(int(math.Min(start, right)), mid, int(right), mid, line)
		marker(project(s.At(n-1).T), float64(mid))
		return
	}

	yscale := float64(st.Height) / (maxV - minV)
	lastX := project(s.At(0).T)
	lastY := float64(y) - (s.At(0).V-minV)*yscale
	for i := 1; i < n; i++ {
		p := s.At(i)
		thisX := project(p.T)
		thisY := float64(y) - (p.V-minV)*yscale
		if thisX >= left || lastX >= left {
			x0, y0 := lastX, lastY
			if x0 < left {
				// clip the leading end to the window start
				y0 += (thisY - lastY) * (left - x0) / (thisX - x0)
				x0 = left
			}
			c.DrawLine(int(x0), int(y0), int(thisX), int(thisY), line)
		}
		lastX, lastY = thisX, thisY
	}
	marker(lastX, lastY)
}
