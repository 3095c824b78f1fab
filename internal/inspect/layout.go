package inspect

// Layout holds the fixed metrics of a paint pass, in pixels.
type Layout struct {
	RowHeight    int
	IndentWidth  int
	SpacerHeight int

	// Column caps: the name column starts at min(NameColumnMax, width/4) and
	// the value column at min(name+ValueColumnMax, width/2).
	NameColumnMax  int
	ValueColumnMax int
	// ValueWidth separates the value column from the sparkline column.
	ValueWidth int

	Spark SparkStyle
}

// DefaultLayout returns metrics for a 2x4 pixel terminal cell.
func DefaultLayout() Layout {
	return Layout{
		RowHeight:      4,
		IndentWidth:    4,
		SpacerHeight:   0,
		NameColumnMax:  64,
		ValueColumnMax: 64,
		ValueWidth:     48,
		Spark: SparkStyle{
			Width:  40,
			Height: 3,
			Window: 5,
		},
	}
}

// columns returns the type, name, value and sparkline tab stops.
func (l Layout) columns(width int) [4]int {
	var x [4]int
	x[1] = min(l.NameColumnMax, width/4)
	x[2] = min(x[1]+l.ValueColumnMax, 2*width/4)
	x[3] = x[2] + l.ValueWidth
	return x
}
