package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
)

// Braille dot bits indexed by [row][column] within a 2x4 cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cell struct {
	r    rune
	dots uint8
	fg   inspect.Color
	bg   inspect.Color
	font inspect.Font
	// cont marks the right half of a double width rune.
	cont bool
}

func (c cell) glyph() rune {
	switch {
	case c.dots != 0:
		return 0x2800 + rune(c.dots)
	case c.r == 0:
		return ' '
	default:
		return c.r
	}
}

// Canvas is an inspect.Canvas backed by a grid of terminal cells. Each cell
// is two pixels wide; a text line is one row of the inspector and is
// rowHeight pixels tall. Lines and dots are drawn with braille glyphs.
type Canvas struct {
	cols      int
	lines     int
	rowHeight int
	cells     []cell
	styles    StyleManager
}

// NewCanvas creates a canvas of cols x lines cells.
func NewCanvas(cols, lines, rowHeight int, styles StyleManager) *Canvas {
	if rowHeight < 1 {
		rowHeight = 4
	}
	c := &Canvas{rowHeight: rowHeight, styles: styles}
	c.Resize(cols, lines)
	return c
}

// Resize changes the grid size. The content is cleared.
func (c *Canvas) Resize(cols, lines int) {
	cols, lines = max(cols, 0), max(lines, 0)
	c.cols, c.lines = cols, lines
	if n := cols * lines; cap(c.cells) >= n {
		c.cells = c.cells[:n]
	} else {
		c.cells = make([]cell, n)
	}
	clear(c.cells)
}

// Cols returns the width in cells.
func (c *Canvas) Cols() int { return c.cols }

// Lines returns the height in text lines.
func (c *Canvas) Lines() int { return c.lines }

// Width implements inspect.Canvas.
func (c *Canvas) Width() int { return c.cols * 2 }

// Height implements inspect.Canvas.
func (c *Canvas) Height() int { return c.lines * c.rowHeight }

// TextWidth implements inspect.Canvas.
func (c *Canvas) TextWidth(s string, _ inspect.Font) int {
	return lipgloss.Width(s) * 2
}

// lineOf maps a pixel row to the text line containing it. A row whose
// baseline is y covers pixels y-rowHeight+1 through y.
func (c *Canvas) lineOf(py int) int {
	return floorDiv(py-1, c.rowHeight)
}

func (c *Canvas) at(col, line int) *cell {
	if col < 0 || col >= c.cols || line < 0 || line >= c.lines {
		return nil
	}
	return &c.cells[line*c.cols+col]
}

// release clears a double width rune that col is part of.
func (c *Canvas) release(col, line int) {
	cl := c.at(col, line)
	if cl == nil {
		return
	}
	if cl.cont {
		if left := c.at(col-1, line); left != nil {
			left.r = 0
		}
		cl.cont = false
	} else if right := c.at(col+1, line); right != nil && right.cont {
		right.cont = false
		right.r = 0
	}
}

// DrawText implements inspect.Canvas. The text is drawn on the line of its
// baseline and keeps the background underneath.
func (c *Canvas) DrawText(s string, x, y int, f inspect.Font, col inspect.Color) {
	line := c.lineOf(y)
	if line < 0 || line >= c.lines {
		return
	}
	pos := floorDiv(x, 2)
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if w == 0 {
			continue
		}
		if pos >= 0 && pos+w <= c.cols {
			c.release(pos, line)
			cl := c.at(pos, line)
			cl.r, cl.dots, cl.fg, cl.font = r, 0, col, f
			if w == 2 {
				c.release(pos+1, line)
				next := c.at(pos+1, line)
				next.r, next.dots, next.cont = 0, 0, true
			}
		}
		pos += w
		if pos >= c.cols {
			return
		}
	}
}

// setDot lights one braille dot. A dot drawn over text replaces the glyph.
func (c *Canvas) setDot(px, py int, col inspect.Color) {
	line := c.lineOf(py)
	cl := c.at(floorDiv(px, 2), line)
	if cl == nil {
		return
	}
	row := (py - 1 - line*c.rowHeight) * 4 / c.rowHeight
	if cl.cont || cl.dots == 0 {
		c.release(floorDiv(px, 2), line)
		cl.r = 0
		cl.font = inspect.FontPlain
	}
	cl.dots |= brailleBits[row][px-floorDiv(px, 2)*2]
	cl.fg = col
}

// DrawLine implements inspect.Canvas with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col inspect.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.setDot(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// FillRect implements inspect.Canvas. Every cell the rectangle starts in or
// reaches gets the background and loses its glyph.
func (c *Canvas) FillRect(x, y, w, h int, col inspect.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	c0, c1 := max(floorDiv(x, 2), 0), min(floorDiv(x+w-1, 2), c.cols-1)
	l0, l1 := max(floorDiv(y, c.rowHeight), 0), min(floorDiv(y+h-1, c.rowHeight), c.lines-1)
	for line := l0; line <= l1; line++ {
		for i := c0; i <= c1; i++ {
			c.release(i, line)
			c.cells[line*c.cols+i] = cell{bg: col, fg: inspect.ColorText}
		}
	}
}

// FillDot implements inspect.Canvas.
func (c *Canvas) FillDot(x, y, size int, col inspect.Color) {
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			c.setDot(x+dx, y+dy, col)
		}
	}
}

// String renders the grid with the cell styles of the style manager.
func (c *Canvas) String() string {
	var b strings.Builder
	var run []rune
	for line := 0; line < c.lines; line++ {
		if line > 0 {
			b.WriteByte('\n')
		}
		var cur cellKey
		flush := func() {
			if len(run) == 0 {
				return
			}
			if c.styles == nil {
				b.WriteString(string(run))
			} else {
				b.WriteString(c.styles.Cell(cur.fg, cur.bg, cur.font).Render(string(run)))
			}
			run = run[:0]
		}
		for i := 0; i < c.cols; i++ {
			cl := c.cells[line*c.cols+i]
			if cl.cont {
				continue
			}
			k := cellKey{fg: cl.fg, bg: cl.bg, font: cl.font}
			if k != cur {
				flush()
				cur = k
			}
			run = append(run, cl.glyph())
		}
		flush()
	}
	return b.String()
}

// Plain returns the glyphs without styling, one string per line with
// trailing blanks removed.
func (c *Canvas) Plain() []string {
	out := make([]string, c.lines)
	for line := range out {
		var b strings.Builder
		for i := 0; i < c.cols; i++ {
			cl := c.cells[line*c.cols+i]
			if !cl.cont {
				b.WriteRune(cl.glyph())
			}
		}
		out[line] = strings.TrimRight(b.String(), " ")
	}
	return out
}

// BackgroundAt returns the background role of a cell.
func (c *Canvas) BackgroundAt(col, line int) inspect.Color {
	if cl := c.at(col, line); cl != nil {
		return cl.bg
	}
	return inspect.ColorBackground
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
