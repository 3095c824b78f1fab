package tui

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/introspect"
	"github.com/ikari-pl/go-msgspy/internal/output"
)

// RenderFrame paints v once into a canvas cols cells wide and returns it.
// The canvas is as tall as the tree.
func RenderFrame(v introspect.Value, cols int, layout inspect.Layout, styles StyleManager) *Canvas {
	canvas := NewCanvas(max(cols, 1), 1, layout.RowHeight, styles)
	container := &InspectorState{}
	panel := inspect.NewPanel(inspect.PanelOptions{
		Layout:    layout,
		Samples:   2,
		Container: container,
		Logger:    zerolog.Nop(),
	})
	panel.Deliver(v, 0)
	panel.Paint(canvas)
	if need := max(linesFor(container.ContentHeight, layout.RowHeight), 1); need != canvas.Lines() {
		canvas.Resize(canvas.Cols(), need)
		panel.Paint(canvas)
	}
	return canvas
}

// frameFormatter prints the inspector tree as it appears on screen.
type frameFormatter struct {
	cols   int
	layout inspect.Layout
	styles StyleManager
}

// NewFrameFormatter returns an output.Formatter drawing the inspector tree
// cols cells wide. With a nil style manager the frame is plain text.
func NewFrameFormatter(cols int, layout inspect.Layout, styles StyleManager) output.Formatter {
	return &frameFormatter{cols: cols, layout: layout, styles: styles}
}

// Name returns the name of the formatter.
func (f *frameFormatter) Name() string {
	return "frame"
}

// Description returns a description of the output format.
func (f *frameFormatter) Description() string {
	return "Inspector tree as drawn in the terminal"
}

// Format writes the frame of snap.Value.
func (f *frameFormatter) Format(ctx context.Context, snap output.Snapshot, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	canvas := RenderFrame(snap.Value, f.cols, f.layout, f.styles)
	text := canvas.String()
	if f.styles == nil {
		text = strings.Join(canvas.Plain(), "\n")
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}
