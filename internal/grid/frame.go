package grid

import "math"

const (
	// IdleOpacity is used for every dot while paused and for unlit dots.
	IdleOpacity = 0.3
	// TopOpacity is what the highest lit dot of a column fades toward.
	TopOpacity = 0.5
)

// Frame is the per-dot opacity for one snapshot, row-major from the top.
type Frame struct {
	Geometry Geometry
	Active   bool
	Opacity  []float64
	Lit      []bool
}

// ActiveDots is the number of lit dots for magnitude v in a column of rows.
func ActiveDots(v uint8, rows int) int {
	return int(math.Floor(float64(v) / 255 * float64(rows)))
}

// BinFor maps column i of columns onto one of n bins.
func BinFor(i, columns, n int) int {
	return i * n / columns
}

// LitOpacity ramps from 1.0 at the bottom of an active column toward 0.5 at
// its top.
func LitOpacity(invertedJ, activeDots int) float64 {
	if activeDots <= 0 {
		return IdleOpacity
	}
	return 1 - (1-TopOpacity)*float64(invertedJ)/float64(activeDots)
}

// NewFrame maps a snapshot onto g. When active is false, or the snapshot is
// empty, every dot gets IdleOpacity.
func NewFrame(g Geometry, snapshot []uint8, active bool) Frame {
	f := Frame{
		Geometry: g,
		Active:   active && len(snapshot) > 0,
		Opacity:  make([]float64, g.Cells()),
		Lit:      make([]bool, g.Cells()),
	}
	for i := range f.Opacity {
		f.Opacity[i] = IdleOpacity
	}
	if !f.Active {
		return f
	}

	n := len(snapshot)
	for col := 0; col < g.Columns; col++ {
		activeDots := ActiveDots(snapshot[BinFor(col, g.Columns, n)], g.Rows)
		for row := 0; row < g.Rows; row++ {
			invertedJ := g.Rows - row - 1
			if invertedJ < activeDots {
				idx := row*g.Columns + col
				f.Lit[idx] = true
				f.Opacity[idx] = LitOpacity(invertedJ, activeDots)
			}
		}
	}
	return f
}

func (f Frame) At(col, row int) float64 {
	return f.Opacity[row*f.Geometry.Columns+col]
}

func (f Frame) IsLit(col, row int) bool {
	return f.Lit[row*f.Geometry.Columns+col]
}

// LitCount is the number of lit dots.
func (f Frame) LitCount() int {
	n := 0
	for _, l := range f.Lit {
		if l {
			n++
		}
	}
	return n
}

// ColumnHeight counts the lit dots in col.
func (f Frame) ColumnHeight(col int) int {
	n := 0
	for row := 0; row < f.Geometry.Rows; row++ {
		if f.IsLit(col, row) {
			n++
		}
	}
	return n
}
