package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func full(n int, v uint8) []uint8 {
	b := make([]uint8, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestComputeMinimumAndIdempotence(t *testing.T) {
	for w := 1.0; w <= 2000; w += 37 {
		for h := 1.0; h <= 1200; h += 53 {
			s := Surface{Width: w, Height: h, PixelRatio: 0.25}
			g := Compute(s)
			assert.GreaterOrEqual(t, g.Columns, MinCells)
			assert.GreaterOrEqual(t, g.Rows, MinCells)
			assert.Equal(t, g, Compute(s))
		}
	}
}

func TestComputeValues(t *testing.T) {
	g := Compute(Surface{Width: 800, Height: 600, PixelRatio: 1})
	assert.Equal(t, Geometry{Columns: 20, Rows: 17, PixelWidth: 800, PixelHeight: 600}, g)
	assert.InDelta(t, 40.0, g.SpacingX(), 1e-9)
	assert.InDelta(t, 600.0/17, g.SpacingY(), 1e-9)
	assert.InDelta(t, 0.8*600.0/17, g.DotSize(), 1e-9)

	x, y := g.Center(0, 0)
	assert.InDelta(t, 20.0, x, 1e-9)
	assert.InDelta(t, 300.0/17, y, 1e-9)

	hidpi := Compute(Surface{Width: 800, Height: 600, PixelRatio: 2})
	assert.Equal(t, 20, hidpi.Columns, "columns come from logical size")
	assert.Equal(t, 1600, hidpi.PixelWidth)
	assert.Equal(t, 1200, hidpi.PixelHeight)

	tiny := Compute(Surface{Width: 1, Height: 1})
	assert.Equal(t, Geometry{Columns: 10, Rows: 10, PixelWidth: 1, PixelHeight: 1}, tiny)
}

func TestTerminalSurface(t *testing.T) {
	// 80x20 cells of 8x16 logical px, 2x4 braille dots per cell
	g := Compute(Surface{Width: 80 * 8, Height: 20 * 16, PixelRatio: 0.25})
	assert.Equal(t, 160, g.PixelWidth)
	assert.Equal(t, 80, g.PixelHeight)
	assert.Equal(t, 17, g.Columns)
	assert.Equal(t, 12, g.Rows)
}

func TestZeroSnapshotLightsNothing(t *testing.T) {
	for _, cols := range []float64{200, 800, 3000} {
		g := Compute(Surface{Width: cols, Height: 500, PixelRatio: 1})
		f := NewFrame(g, make([]uint8, 128), true)
		assert.True(t, f.Active)
		assert.Zero(t, f.LitCount())
		for _, o := range f.Opacity {
			assert.Equal(t, IdleOpacity, o)
		}
	}
}

func TestFullSnapshotLightsEveryColumn(t *testing.T) {
	for _, n := range []int{16, 128, 1024} {
		g := Compute(Surface{Width: 900, Height: 700, PixelRatio: 1})
		f := NewFrame(g, full(n, 255), true)
		for col := 0; col < g.Columns; col++ {
			assert.Equal(t, g.Rows, ActiveDots(255, g.Rows))
			assert.Equal(t, g.Rows, f.ColumnHeight(col), "column %d", col)
		}
		assert.Equal(t, g.Cells(), f.LitCount())
	}
}

func TestOpacityRamp(t *testing.T) {
	g := Geometry{Columns: 10, Rows: 10, PixelWidth: 100, PixelHeight: 100}
	f := NewFrame(g, full(10, 255), true)

	bottom := g.Rows - 1
	assert.Equal(t, 1.0, f.At(0, bottom))
	assert.InDelta(t, 1-0.5*9.0/10, f.At(0, 0), 1e-9)
	for row := 1; row < g.Rows; row++ {
		assert.Greater(t, f.At(0, row), f.At(0, row-1), "brighter toward the bottom")
	}
	for _, o := range f.Opacity {
		assert.GreaterOrEqual(t, o, TopOpacity)
		assert.LessOrEqual(t, o, 1.0)
	}
}

func TestColumnMapping(t *testing.T) {
	g := Geometry{Columns: 10, Rows: 10, PixelWidth: 100, PixelHeight: 100}
	snap := make([]uint8, 20)
	snap[4] = 255 // column 2
	snap[5] = 255 // no column maps here
	f := NewFrame(g, snap, true)
	assert.Equal(t, 10, f.ColumnHeight(2))
	assert.Equal(t, 10, f.LitCount())

	half := make([]uint8, 10)
	half[0] = 128
	f = NewFrame(g, half, true)
	assert.Equal(t, 5, f.ColumnHeight(0))
	assert.True(t, f.IsLit(0, 9))
	assert.False(t, f.IsLit(0, 4))
	assert.Equal(t, IdleOpacity, f.At(0, 4), "unlit dots stay at idle opacity")
}

func TestIdleFrame(t *testing.T) {
	g := Geometry{Columns: 10, Rows: 10, PixelWidth: 40, PixelHeight: 40}
	for _, snap := range [][]uint8{full(128, 255), nil} {
		f := NewFrame(g, snap, false)
		assert.False(t, f.Active)
		assert.Zero(t, f.LitCount())
		for _, o := range f.Opacity {
			assert.Equal(t, IdleOpacity, o)
		}
	}
	assert.False(t, NewFrame(g, nil, true).Active, "no snapshot means idle")
}

func TestRasterDecay(t *testing.T) {
	r := NewRaster(2, 1)
	r.Pix[0] = 1
	r.Fade(DecayAlpha)
	assert.InDelta(t, 0.8, r.At(0, 0), 1e-9)
	r.Fade(DecayAlpha)
	assert.InDelta(t, 0.64, r.At(0, 0), 1e-9)
	assert.Zero(t, r.At(5, 5))

	r.Clear()
	assert.Zero(t, r.At(0, 0))
}

func TestRasterTrail(t *testing.T) {
	g := Geometry{Columns: 10, Rows: 10, PixelWidth: 20, PixelHeight: 40}
	r := NewRaster(g.PixelWidth, g.PixelHeight)
	r.Draw(NewFrame(g, full(10, 255), true))
	x, y := g.Center(0, 9)
	lit := r.At(int(x), int(y))
	assert.InDelta(t, 1.0, lit, 1e-9)

	// a quieter frame leaves a trail brighter than its own idle level
	r.Draw(NewFrame(g, make([]uint8, 10), true))
	after := r.At(int(x), int(y))
	assert.Less(t, after, lit)
	assert.Greater(t, after, IdleOpacity)
}

func TestFillCircle(t *testing.T) {
	r := NewRaster(10, 10)
	r.FillCircle(5, 5, 2, 0.5)
	assert.InDelta(t, 0.5, r.At(4, 4), 1e-9)
	assert.Zero(t, r.At(0, 0))

	r.FillCircle(5, 5, 2, 0.5)
	assert.InDelta(t, 0.75, r.At(4, 4), 1e-9, "source-over white")

	small := NewRaster(4, 4)
	small.FillCircle(1.2, 2.9, 0.1, 1)
	assert.Equal(t, 1.0, small.At(1, 2))

	empty := NewRaster(0, 0)
	empty.FillCircle(0, 0, 3, 1)
}

func TestBraille(t *testing.T) {
	r := NewRaster(4, 4)
	r.Pix[0] = 0.9      // (0,0)
	r.Pix[3*4+1] = 0.4  // (1,3)
	r.Pix[2*4+0] = 0.05 // below threshold
	glyph, peak := r.Braille(0, 0, 0.1)
	assert.Equal(t, rune(0x2800|0x01|0x80), glyph)
	assert.Equal(t, 0.9, peak)

	glyph, peak = r.Braille(1, 0, 0.1)
	assert.Equal(t, rune(0x2800), glyph)
	assert.Zero(t, peak)
}

func TestVisualizerResize(t *testing.T) {
	v := NewVisualizer(Surface{Width: 640, Height: 320, PixelRatio: 0.25})
	g := v.Geometry()
	require.NotNil(t, v.Raster())
	assert.Equal(t, g.PixelWidth, v.Raster().Width)

	assert.False(t, v.Resize(v.Surface()), "same size keeps geometry")

	assert.True(t, v.Resize(Surface{Width: 1280, Height: 640, PixelRatio: 0.25}))
	f := v.Draw(full(128, 255), true)
	assert.Equal(t, v.Geometry(), f.Geometry, "next frame uses the new geometry")
	assert.NotEqual(t, g, f.Geometry)
	assert.Equal(t, 320, v.Raster().Width)
	assert.Equal(t, f, v.Last())
}

func TestVisualizerClose(t *testing.T) {
	v := NewVisualizer(Surface{Width: 100, Height: 100, PixelRatio: 1})
	first := v.Draw(nil, false)
	v.Close()
	assert.True(t, v.Closed())
	again := v.Draw(full(128, 255), true)
	assert.Equal(t, first, again)
}
