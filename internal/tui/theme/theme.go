// Package theme provides the colour palette and pre-built styles of the
// msgspy terminal UI.
package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents the complete visual theme for the application.
type Theme struct {
	// Base colors
	Base    lipgloss.Color
	Surface lipgloss.Color
	Overlay lipgloss.Color
	Muted   lipgloss.Color
	Subtle  lipgloss.Color
	Text    lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Tertiary  lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Inspector colors. Bands alternate with section nesting.
	Bands      [3]lipgloss.Color
	SparkLine  lipgloss.Color
	SparkPoint lipgloss.Color
	Hover      lipgloss.Color

	// UI element colors
	Border    lipgloss.Color
	Selection lipgloss.Color
	Highlight lipgloss.Color
}

// DefaultTheme returns the default dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		Base:    lipgloss.Color("#0d1117"),
		Surface: lipgloss.Color("#161b22"),
		Overlay: lipgloss.Color("#21262d"),
		Muted:   lipgloss.Color("#484f58"),
		Subtle:  lipgloss.Color("#6e7681"),
		Text:    lipgloss.Color("#e6edf3"),

		Primary:   lipgloss.Color("#58a6ff"),
		Secondary: lipgloss.Color("#bc8cff"),
		Tertiary:  lipgloss.Color("#79c0ff"),

		Success: lipgloss.Color("#3fb950"),
		Warning: lipgloss.Color("#d29922"),
		Error:   lipgloss.Color("#f85149"),
		Info:    lipgloss.Color("#58a6ff"),

		Bands:      [3]lipgloss.Color{"#0d1117", "#131a22", "#1a212b"},
		SparkLine:  lipgloss.Color("#7ee787"),
		SparkPoint: lipgloss.Color("#ffa657"),
		Hover:      lipgloss.Color("#ff7b72"),

		Border:    lipgloss.Color("#30363d"),
		Selection: lipgloss.Color("#388bfd"),
		Highlight: lipgloss.Color("#1f6feb"),
	}
}

// NeonTheme returns a high-contrast theme.
func NeonTheme() *Theme {
	return &Theme{
		Base:    lipgloss.Color("#0a0a0f"),
		Surface: lipgloss.Color("#12121a"),
		Overlay: lipgloss.Color("#1a1a24"),
		Muted:   lipgloss.Color("#3a3a4a"),
		Subtle:  lipgloss.Color("#5a5a6a"),
		Text:    lipgloss.Color("#f0f0f5"),

		Primary:   lipgloss.Color("#00ffff"),
		Secondary: lipgloss.Color("#ff00ff"),
		Tertiary:  lipgloss.Color("#00ff88"),

		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0055"),
		Info:    lipgloss.Color("#00ffff"),

		Bands:      [3]lipgloss.Color{"#0a0a0f", "#14141f", "#1e1e2e"},
		SparkLine:  lipgloss.Color("#00ff88"),
		SparkPoint: lipgloss.Color("#ffff00"),
		Hover:      lipgloss.Color("#ff00ff"),

		Border:    lipgloss.Color("#2a2a3a"),
		Selection: lipgloss.Color("#00ffff"),
		Highlight: lipgloss.Color("#0088aa"),
	}
}

// ByName returns a theme by name, falling back to the default.
func ByName(name string) *Theme {
	if name == "neon" {
		return NeonTheme()
	}
	return DefaultTheme()
}

// Styles holds all pre-configured styles for the UI.
type Styles struct {
	theme *Theme

	// Layout styles
	Header lipgloss.Style
	Footer lipgloss.Style
	Status lipgloss.Style

	// Component styles
	Title lipgloss.Style
	Value lipgloss.Style

	// Status styles
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style

	// Special styles
	KeyBinding lipgloss.Style
	KeyLabel   lipgloss.Style
	Divider    lipgloss.Style
	Box        lipgloss.Style
	ChartPane  lipgloss.Style
	ChartTitle lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	s := &Styles{theme: theme}

	s.Header = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Background(theme.Surface).
		Bold(true).
		Padding(0, 2)

	s.Footer = lipgloss.NewStyle().
		Foreground(theme.Subtle).
		Background(theme.Surface).
		Padding(0, 1)

	s.Status = lipgloss.NewStyle().
		Foreground(theme.Subtle).
		Background(theme.Base).
		Padding(0, 1)

	s.Title = lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true)

	s.Value = lipgloss.NewStyle().
		Foreground(theme.Text)

	s.Success = lipgloss.NewStyle().
		Foreground(theme.Success)

	s.Warning = lipgloss.NewStyle().
		Foreground(theme.Warning)

	s.Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Background(theme.Error).
		Bold(true).
		Padding(0, 1)

	s.Muted = lipgloss.NewStyle().
		Foreground(theme.Muted)

	s.KeyBinding = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Background(theme.Overlay).
		Padding(0, 1).
		Bold(true)

	s.KeyLabel = lipgloss.NewStyle().
		Foreground(theme.Subtle)

	s.Divider = lipgloss.NewStyle().
		Foreground(theme.Border)

	s.Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(1, 2)

	s.ChartPane = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.Border)

	s.ChartTitle = lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true)

	return s
}

// GetTheme returns the underlying theme.
func (s *Styles) GetTheme() *Theme {
	return s.theme
}

// Icons used across views.
var Icons = struct {
	Channel  string
	Chart    string
	Arrow    string
	Check    string
	Cross    string
	Warning  string
	Search   string
	Expanded string
	Folded   string
}{
	Channel:  "⇄",
	Chart:    "📈",
	Arrow:    "→",
	Check:    "✓",
	Cross:    "✗",
	Warning:  "⚠",
	Search:   "/",
	Expanded: "▼",
	Folded:   "▶",
}
