package inspect

import (
	"unicode/utf8"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

type drawCall struct {
	op     string
	text   string
	x0, y0 int
	x1, y1 int
	font   Font
	color  Color
}

// recCanvas records draw calls. Text is two pixels per rune, like a
// terminal cell.
type recCanvas struct {
	w, h  int
	calls []drawCall
}

func newRecCanvas(w, h int) *recCanvas { return &recCanvas{w: w, h: h} }

func (c *recCanvas) Width() int  { return c.w }
func (c *recCanvas) Height() int { return c.h }

func (c *recCanvas) TextWidth(s string, _ Font) int { return 2 * utf8.RuneCountInString(s) }

func (c *recCanvas) DrawText(s string, x, y int, f Font, col Color) {
	c.calls = append(c.calls, drawCall{op: "text", text: s, x0: x, y0: y, font: f, color: col})
}

func (c *recCanvas) DrawLine(x0, y0, x1, y1 int, col Color) {
	c.calls = append(c.calls, drawCall{op: "line", x0: x0, y0: y0, x1: x1, y1: y1, color: col})
}

func (c *recCanvas) FillRect(x, y, w, h int, col Color) {
	c.calls = append(c.calls, drawCall{op: "rect", x0: x, y0: y, x1: x + w, y1: y + h, color: col})
}

func (c *recCanvas) FillDot(x, y, size int, col Color) {
	c.calls = append(c.calls, drawCall{op: "dot", x0: x, y0: y, x1: x + size, y1: y + size, color: col})
}

func (c *recCanvas) reset() { c.calls = nil }

func (c *recCanvas) ops(op string) []drawCall {
	var out []drawCall
	for _, d := range c.calls {
		if d.op == op {
			out = append(out, d)
		}
	}
	return out
}

func (c *recCanvas) texts() []string {
	var out []string
	for _, d := range c.ops("text") {
		out = append(out, d.text)
	}
	return out
}

func (c *recCanvas) text(s string) (drawCall, bool) {
	for _, d := range c.ops("text") {
		if d.text == s {
			return d, true
		}
	}
	return drawCall{}, false
}

// linesIn returns the lines drawn inside the sparkline box of e.
func (c *recCanvas) linesIn(e *SparklineEntry) []drawCall {
	var out []drawCall
	for _, d := range c.ops("line") {
		if d.y0 > e.YMin && d.y0 <= e.YMax && d.x0 >= e.XMin && d.x1 <= e.XMax {
			out = append(out, d)
		}
	}
	return out
}

func record(typ string, fields ...introspect.Field) *introspect.Struct {
	return &introspect.Struct{Type: typ, Members: fields}
}

func field(name string, v introspect.Value) introspect.Field {
	return introspect.NewField(name, v.TypeName(), false, v)
}
