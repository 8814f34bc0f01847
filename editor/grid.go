package editor

import "math"

// Grid maps pixel coordinates over a monospace lyric block to character
// cells and back.
type Grid struct {
	CharWidth  float64
	LineHeight float64
}

// Cell snaps a point to the cell containing it. Points above or left of the
// origin snap to the first row or column.
func (g Grid) Cell(x, y float64) Position {
	if g.CharWidth <= 0 || g.LineHeight <= 0 {
		return Position{}
	}
	return Position{
		Line: snap(y / g.LineHeight),
		Char: snap(x / g.CharWidth),
	}
}

// Point is the top-left corner of a cell.
func (g Grid) Point(p Position) (x, y float64) {
	return float64(p.Char) * g.CharWidth, float64(p.Line) * g.LineHeight
}

func snap(v float64) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}
