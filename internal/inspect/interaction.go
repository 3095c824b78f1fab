package inspect

import "strings"

// Button identifies the pointer button of a click.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonMiddle
	ButtonSecondary
)

// Hover names the sparkline row under the pointer.
type Hover struct {
	Section uint64
	Field   string
	Active  bool
}

func (h Hover) matches(s *Section, field string) bool {
	return h.Active && s != nil && s.Key == h.Section && h.Field == field
}

// Outcome is the result of one pointer event. The controller never mutates
// sections; the caller applies Toggle and dispatches Chart.
type Outcome struct {
	Hover        Hover
	HoverChanged bool
	Toggle       *Section
	Chart        *ChartRequest
	Repaint      bool
}

// InteractionController maps pointer events onto the geometry recorded by
// the previous paint.
type InteractionController struct {
	sections *SectionStore
	hover    Hover
}

// NewInteractionController creates a controller reading sections.
func NewInteractionController(sections *SectionStore) *InteractionController {
	return &InteractionController{sections: sections}
}

// Hover returns the current hover state.
func (ic *InteractionController) Hover() Hover { return ic.hover }

// sparklineAt scans sections from the most recently drawn backwards and
// returns the first row containing y. With exact set, x must also fall on
// the sparkline.
func (ic *InteractionController) sparklineAt(x, y int, exact bool) (*Section, *SparklineEntry) {
	drawn := ic.sections.Sections()
	for i := len(drawn) - 1; i >= 0; i-- {
		s := drawn[i]
		if s.Collapsed || s.Box.Empty() || s.Box.Y0 >= y || s.Box.Y1 <= y {
			continue
		}
		for _, e := range s.Sparklines() {
			if e.YMin >= y || e.YMax < y {
				continue
			}
			if exact && (x < e.XMin || x > e.XMax) {
				continue
			}
			return s, e
		}
	}
	return nil, nil
}

// PointerMove updates the hover state for a pointer at (x, y).
func (ic *InteractionController) PointerMove(x, y int) Outcome {
	var next Hover
	if s, e := ic.sparklineAt(x, y, false); e != nil {
		next = Hover{Section: s.Key, Field: e.Name, Active: true}
	}
	changed := next != ic.hover
	ic.hover = next
	return Outcome{Hover: next, HoverChanged: changed, Repaint: true}
}

// Click resolves a button press at (x, y). A press on a sparkline becomes a
// chart request; anything else toggles the best matching section.
func (ic *InteractionController) Click(x, y int, b Button) Outcome {
	if s, e := ic.sparklineAt(x, y, true); e != nil {
		var mode ChartMode
		switch b {
		case ButtonPrimary:
			mode = ChartSameAxis
		case ButtonSecondary:
			mode = ChartNewAxis
		case ButtonMiddle:
			mode = ChartNewWindow
		default:
			return Outcome{Hover: ic.hover}
		}
		return Outcome{
			Hover: ic.hover,
			Chart: &ChartRequest{Mode: mode, Field: FieldPath(s, e.Name), Trace: e.Trace()},
		}
	}

	s := ic.sections.BestContaining(x, y)
	if s == nil {
		return Outcome{Hover: ic.hover}
	}
	return Outcome{Hover: ic.hover, Toggle: s, Repaint: true}
}

// FieldPath joins a section path and a field name. Array elements named
// "pts[2]" inside section "root.pts" become "root.pts[2]".
func FieldPath(s *Section, name string) string {
	if i := strings.IndexByte(name, '['); i > 0 && strings.HasSuffix(s.Path, "."+name[:i]) {
		return s.Path + name[i:]
	}
	return s.Path + "." + name
}
