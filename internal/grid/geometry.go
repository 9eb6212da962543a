package grid

import "math"

// MinCells is the smallest number of columns or rows a grid may have.
const MinCells = 10

// Surface is a drawing area in logical pixels plus the number of device
// pixels per logical pixel.
type Surface struct {
	Width      float64
	Height     float64
	PixelRatio float64
}

// Geometry is the dot layout for one surface size. Spacing and dot size are
// derived on demand so they can never disagree with the stored fields.
type Geometry struct {
	Columns     int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// Compute lays out a grid for s. The result depends only on s.
func Compute(s Surface) Geometry {
	ratio := s.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	w := math.Max(s.Width, 0)
	h := math.Max(s.Height, 0)
	return Geometry{
		Columns:     max(MinCells, int(math.Floor(math.Sqrt(w*0.5)))),
		Rows:        max(MinCells, int(math.Floor(math.Sqrt(h*0.5)))),
		PixelWidth:  int(math.Round(w * ratio)),
		PixelHeight: int(math.Round(h * ratio)),
	}
}

func (g Geometry) SpacingX() float64 {
	return float64(g.PixelWidth) / float64(g.Columns)
}

func (g Geometry) SpacingY() float64 {
	return float64(g.PixelHeight) / float64(g.Rows)
}

// DotSize is the dot diameter in device pixels.
func (g Geometry) DotSize() float64 {
	return 0.8 * math.Min(g.SpacingX(), g.SpacingY())
}

// Center returns the device-pixel centre of the dot at (col, row).
func (g Geometry) Center(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * g.SpacingX(), (float64(row) + 0.5) * g.SpacingY()
}

// Cells is Columns*Rows.
func (g Geometry) Cells() int {
	return g.Columns * g.Rows
}
