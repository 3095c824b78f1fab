package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
)

func TestCanvasGeometry(t *testing.T) {
	c := NewCanvas(10, 3, 4, nil)

	assert.Equal(t, 20, c.Width())
	assert.Equal(t, 12, c.Height())
	assert.Equal(t, 6, c.TextWidth("abc", inspect.FontPlain))
	assert.Equal(t, 4, c.TextWidth("日", inspect.FontPlain))

	c.Resize(4, 2)
	assert.Equal(t, 8, c.Width())
	assert.Equal(t, 8, c.Height())
	assert.Len(t, c.Plain(), 2)
}

func TestCanvasDrawText(t *testing.T) {
	tests := []struct {
		name string
		draw func(c *Canvas)
		want []string
	}{
		{
			name: "baseline selects the line",
			draw: func(c *Canvas) {
				c.DrawText("ab", 2, 4, inspect.FontPlain, inspect.ColorText)
				c.DrawText("cd", 0, 8, inspect.FontBold, inspect.ColorText)
			},
			want: []string{" ab", "cd", ""},
		},
		{
			name: "any pixel of the row maps to its line",
			draw: func(c *Canvas) {
				c.DrawText("x", 0, 5, inspect.FontPlain, inspect.ColorText)
				c.DrawText("y", 0, 12, inspect.FontPlain, inspect.ColorText)
			},
			want: []string{"", "x", "y"},
		},
		{
			name: "clipped at the edges",
			draw: func(c *Canvas) {
				c.DrawText("zz", -2, 4, inspect.FontPlain, inspect.ColorText)
				c.DrawText("0123456789ab", 0, 8, inspect.FontPlain, inspect.ColorText)
				c.DrawText("lost", 0, 100, inspect.FontPlain, inspect.ColorText)
				c.DrawText("lost", 0, 0, inspect.FontPlain, inspect.ColorText)
			},
			want: []string{"z", "0123456789", ""},
		},
		{
			name: "wide runes take two cells",
			draw: func(c *Canvas) {
				c.DrawText("日x", 0, 4, inspect.FontPlain, inspect.ColorText)
			},
			want: []string{"日x", "", ""},
		},
		{
			name: "overwriting half of a wide rune clears it",
			draw: func(c *Canvas) {
				c.DrawText("日x", 0, 4, inspect.FontPlain, inspect.ColorText)
				c.DrawText("a", 2, 4, inspect.FontPlain, inspect.ColorText)
			},
			want: []string{" ax", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(10, 3, 4, nil)
			tt.draw(c)
			assert.Equal(t, tt.want, c.Plain())
		})
	}
}

func TestCanvasBraille(t *testing.T) {
	tests := []struct {
		name string
		draw func(c *Canvas)
		want string
	}{
		{
			name: "top left dot",
			draw: func(c *Canvas) { c.FillDot(0, 1, 1, inspect.ColorLine) },
			want: "⠁",
		},
		{
			name: "bottom right dot",
			draw: func(c *Canvas) { c.FillDot(1, 4, 1, inspect.ColorLine) },
			want: "⢀",
		},
		{
			name: "dots accumulate in a cell",
			draw: func(c *Canvas) {
				c.FillDot(0, 1, 1, inspect.ColorLine)
				c.FillDot(1, 4, 1, inspect.ColorLine)
			},
			want: "⢁",
		},
		{
			name: "horizontal line on the baseline",
			draw: func(c *Canvas) { c.DrawLine(0, 4, 3, 4, inspect.ColorLine) },
			want: "⣀⣀",
		},
		{
			name: "vertical line fills the left column",
			draw: func(c *Canvas) { c.DrawLine(0, 1, 0, 4, inspect.ColorLine) },
			want: "⡇",
		},
		{
			name: "three pixel marker",
			draw: func(c *Canvas) { c.FillDot(0, 2, 3, inspect.ColorPoint) },
			want: "⣶⡆",
		},
		{
			name: "dots replace text",
			draw: func(c *Canvas) {
				c.DrawText("ab", 0, 4, inspect.FontPlain, inspect.ColorText)
				c.FillDot(0, 1, 1, inspect.ColorLine)
			},
			want: "⠁b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(4, 1, 4, nil)
			tt.draw(c)
			assert.Equal(t, tt.want, c.Plain()[0])
		})
	}
}

func TestCanvasBrailleScalesTallRows(t *testing.T) {
	c := NewCanvas(2, 1, 8, nil)

	c.FillDot(0, 8, 1, inspect.ColorLine)
	c.FillDot(1, 1, 1, inspect.ColorLine)

	assert.Equal(t, "⡈", c.Plain()[0])
}

func TestCanvasFillRect(t *testing.T) {
	c := NewCanvas(10, 3, 4, nil)
	c.DrawText("hello", 0, 4, inspect.FontPlain, inspect.ColorText)
	c.DrawText("world", 0, 8, inspect.FontPlain, inspect.ColorText)

	c.FillRect(0, 0, 20, 4, inspect.ColorBand1)

	assert.Equal(t, []string{"", "world", ""}, c.Plain())
	assert.Equal(t, inspect.ColorBand1, c.BackgroundAt(0, 0))
	assert.Equal(t, inspect.ColorBand1, c.BackgroundAt(9, 0))
	assert.Equal(t, inspect.ColorBackground, c.BackgroundAt(0, 1))

	// Text keeps the band underneath.
	c.DrawText("hi", 0, 4, inspect.FontBold, inspect.ColorText)
	assert.Equal(t, inspect.ColorBand1, c.BackgroundAt(0, 0))

	// A band from a row top reaches the bottom of the canvas.
	c.FillRect(4, 5, 16, c.Height()-5+1, inspect.ColorBand2)
	assert.Equal(t, inspect.ColorBackground, c.BackgroundAt(1, 1))
	assert.Equal(t, inspect.ColorBand2, c.BackgroundAt(2, 1))
	assert.Equal(t, inspect.ColorBand2, c.BackgroundAt(9, 2))
	assert.Equal(t, inspect.ColorBand1, c.BackgroundAt(2, 0))

	c.FillRect(0, 0, 0, 10, inspect.ColorBand0)
	assert.Equal(t, inspect.ColorBand1, c.BackgroundAt(0, 0))
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(6, 2, 4, NewStyleManager(nil))
	c.FillRect(0, 0, c.Width(), c.Height(), inspect.ColorBackground)
	c.DrawText("ab", 0, 4, inspect.FontBold, inspect.ColorText)
	c.DrawLine(4, 8, 11, 8, inspect.ColorLine)

	out := c.String()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ab")
	assert.Contains(t, lines[1], "⣀")
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{3, 2, 1},
		{4, 2, 2},
		{0, 4, 0},
		{-1, 2, -1},
		{-2, 2, -1},
		{-5, 4, -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, floorDiv(tt.a, tt.b), "%d/%d", tt.a, tt.b)
	}
}
