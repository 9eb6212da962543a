package grid

import "math"

// DecayAlpha is the opacity of the black fill laid over the previous frame.
const DecayAlpha = 0.2

// Raster is a greyscale device-pixel buffer: 0 is the black background and
// 1 is a fully opaque white dot.
type Raster struct {
	Width  int
	Height int
	Pix    []float64
}

func NewRaster(width, height int) *Raster {
	width = max(width, 0)
	height = max(height, 0)
	return &Raster{Width: width, Height: height, Pix: make([]float64, width*height)}
}

func (r *Raster) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0
	}
	return r.Pix[y*r.Width+x]
}

// Fade composites black at alpha over the whole raster.
func (r *Raster) Fade(alpha float64) {
	keep := 1 - alpha
	for i := range r.Pix {
		r.Pix[i] *= keep
	}
}

// Clear resets every pixel to the background.
func (r *Raster) Clear() {
	for i := range r.Pix {
		r.Pix[i] = 0
	}
}

// FillCircle composites white at opacity over every pixel whose centre lies
// within the circle. A circle too small to cover any pixel centre still
// marks the pixel it sits in.
func (r *Raster) FillCircle(cx, cy, radius, opacity float64) {
	if r.Width == 0 || r.Height == 0 {
		return
	}
	x0 := max(0, int(math.Floor(cx-radius)))
	x1 := min(r.Width-1, int(math.Ceil(cx+radius)))
	y0 := max(0, int(math.Floor(cy-radius)))
	y1 := min(r.Height-1, int(math.Ceil(cy+radius)))
	r2 := radius * radius
	hit := false
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				r.blend(x, y, opacity)
				hit = true
			}
		}
	}
	if !hit {
		x, y := int(cx), int(cy)
		if x >= 0 && y >= 0 && x < r.Width && y < r.Height {
			r.blend(x, y, opacity)
		}
	}
}

func (r *Raster) blend(x, y int, opacity float64) {
	i := y*r.Width + x
	r.Pix[i] += opacity * (1 - r.Pix[i])
}

// Draw fades the previous contents and paints the dots of f.
func (r *Raster) Draw(f Frame) {
	r.Fade(DecayAlpha)
	g := f.Geometry
	radius := g.DotSize() / 2
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Columns; col++ {
			cx, cy := g.Center(col, row)
			r.FillCircle(cx, cy, radius, f.At(col, row))
		}
	}
}

// braille dot bits for a 2x4 block, indexed [y][x].
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Braille packs the 2x4 pixel block at cell (cx, cy) into a braille pattern.
// Pixels brighter than threshold are set. peak is the brightest pixel in the
// block.
func (r *Raster) Braille(cx, cy int, threshold float64) (glyph rune, peak float64) {
	var mask uint8
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			v := r.At(cx*2+x, cy*4+y)
			if v > threshold {
				mask |= brailleBits[y][x]
			}
			peak = math.Max(peak, v)
		}
	}
	return rune(0x2800 + int(mask)), peak
}
