package inspect

// TraceHandle is the opaque view of a field's sample buffer handed to the
// chart window manager.
type TraceHandle interface {
	Name() string
	Len() int
	At(i int) Sample
	SetCapacity(capacity int)
}

// ChartMode selects how a detailed chart request is fulfilled.
type ChartMode int

const (
	// ChartSameAxis adds the trace to the most recently focused chart.
	ChartSameAxis ChartMode = iota
	// ChartNewAxis adds the trace to the most recently focused chart on a new y axis.
	ChartNewAxis
	// ChartNewWindow opens a dedicated chart window.
	ChartNewWindow
)

func (m ChartMode) String() string {
	switch m {
	case ChartSameAxis:
		return "same-axis"
	case ChartNewAxis:
		return "new-axis"
	case ChartNewWindow:
		return "new-window"
	default:
		return "unknown"
	}
}

// ChartRequest asks the chart window manager to show a trace.
type ChartRequest struct {
	Mode  ChartMode
	Field string
	Trace TraceHandle
}

// ChartManager owns detailed chart windows. Implementations must bring an
// already open window containing the trace to the front instead of adding
// the trace twice.
type ChartManager interface {
	Show(req ChartRequest)
}
