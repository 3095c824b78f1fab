package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/tui/theme"
)

type cellKey struct {
	fg, bg inspect.Color
	font   inspect.Font
}

// styleManager implements the StyleManager interface on top of a theme.
type styleManager struct {
	theme  *theme.Theme
	styles *theme.Styles

	mu    sync.Mutex
	cells map[cellKey]lipgloss.Style
}

// NewStyleManager creates a StyleManager for t, or the default theme when t
// is nil.
func NewStyleManager(t *theme.Theme) StyleManager {
	if t == nil {
		t = theme.DefaultTheme()
	}
	return &styleManager{
		theme:  t,
		styles: theme.NewStyles(t),
		cells:  make(map[cellKey]lipgloss.Style),
	}
}

// Header renders a full width header followed by a gradient rule.
func (s *styleManager) Header(text string, width int) string {
	if width <= 0 {
		width = 80
	}
	header := s.styles.Header.Width(width).Render(theme.Icons.Channel + " " + text)
	return header + "\n" + s.renderGradientLine(width)
}

func (s *styleManager) renderGradientLine(width int) string {
	colors := []lipgloss.Color{
		s.theme.Primary,
		s.theme.Secondary,
		s.theme.Tertiary,
		s.theme.Secondary,
		s.theme.Primary,
	}

	var b strings.Builder
	segmentWidth := width / len(colors)
	for i, color := range colors {
		n := segmentWidth
		if i == len(colors)-1 {
			n = width - i*segmentWidth
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▀", n)))
	}
	return b.String()
}

// Footer renders key hints. Words of the form "[key]label" become a key
// badge followed by its label.
func (s *styleManager) Footer(text string, width int) string {
	var parts []string
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, "[") {
			if idx := strings.Index(word, "]"); idx > 0 {
				parts = append(parts, s.styles.KeyBinding.Render(word[1:idx])+s.styles.KeyLabel.Render(word[idx+1:]))
				continue
			}
		}
		parts = append(parts, s.styles.KeyLabel.Render(word))
	}

	style := s.styles.Footer
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(parts, " "))
}

// StatusBar renders a one line status summary.
func (s *styleManager) StatusBar(text string, width int) string {
	style := s.styles.Status
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(text)
}

// Error renders error text.
func (s *styleManager) Error(text string) string {
	return s.styles.Error.Render(text)
}

// DimText renders text with dimmed/grayed out styling.
func (s *styleManager) DimText(text string) string {
	return s.styles.Muted.Render(text)
}

// Title renders a title.
func (s *styleManager) Title(text string) string {
	return s.styles.Title.Render(text)
}

// Separator renders a visual separator line.
func (s *styleManager) Separator(width int) string {
	if width <= 0 {
		width = 60
	}
	return s.styles.Divider.Render(strings.Repeat("─", width))
}

// Cell returns the style of an inspector cell, cached per combination.
func (s *styleManager) Cell(fg, bg inspect.Color, font inspect.Font) lipgloss.Style {
	k := cellKey{fg: fg, bg: bg, font: font}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.cells[k]; ok {
		return st
	}

	st := lipgloss.NewStyle().
		Foreground(s.color(fg)).
		Background(s.color(bg))
	switch font {
	case inspect.FontBold:
		st = st.Bold(true)
	case inspect.FontItalic:
		st = st.Italic(true)
	}
	s.cells[k] = st
	return st
}

// color maps a paint role to the theme.
func (s *styleManager) color(c inspect.Color) lipgloss.Color {
	switch c {
	case inspect.ColorBackground, inspect.ColorBand0:
		return s.theme.Bands[0]
	case inspect.ColorBand1:
		return s.theme.Bands[1]
	case inspect.ColorBand2:
		return s.theme.Bands[2]
	case inspect.ColorHover:
		return s.theme.Hover
	case inspect.ColorLine:
		return s.theme.SparkLine
	case inspect.ColorPoint:
		return s.theme.SparkPoint
	default:
		return s.theme.Text
	}
}

// GetStyles returns the underlying theme styles.
func (s *styleManager) GetStyles() *theme.Styles {
	return s.styles
}

// GetTheme returns the underlying theme.
func (s *styleManager) GetTheme() *theme.Theme {
	return s.theme
}
