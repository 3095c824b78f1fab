// Package inspect renders a decoded message as a collapsible tree whose
// numeric leaves carry rolling sparkline charts. It keeps collapse state,
// per-field sample history and hit-testing geometry across repaints.
package inspect

// Font selects the text face used for a string.
type Font int

const (
	FontPlain Font = iota
	FontBold
	FontItalic
)

// Color is a semantic paint role. Backends map roles to concrete colours.
type Color int

const (
	ColorBackground Color = iota
	ColorText
	ColorHover
	ColorLine
	ColorPoint
	ColorBand0
	ColorBand1
	ColorBand2
)

// BandCount is the number of alternating section background bands.
const BandCount = 3

// BandColor returns the background band for a nesting level.
func BandColor(level int) Color {
	if level < 0 {
		level = -level
	}
	return ColorBand0 + Color(level%BandCount)
}

// Canvas is the drawing surface a paint pass writes to. Coordinates are in
// pixels with y growing downwards; text is drawn on a baseline.
type Canvas interface {
	Width() int
	Height() int
	TextWidth(s string, f Font) int
	DrawText(s string, x, y int, f Font, c Color)
	DrawLine(x0, y0, x1, y1 int, c Color)
	FillRect(x, y, w, h int, c Color)
	// FillDot draws a filled marker of the given size with its top-left
	// corner at (x, y).
	FillDot(x, y, size int, c Color)
}
