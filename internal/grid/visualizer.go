package grid

import "log"

// Visualizer keeps the geometry and raster for the current surface and turns
// snapshots into frames. It is driven from a single goroutine.
type Visualizer struct {
	surface Surface
	geom    Geometry
	raster  *Raster
	last    Frame
	closed  bool
}

func NewVisualizer(s Surface) *Visualizer {
	v := &Visualizer{}
	v.Resize(s)
	return v
}

// Resize recomputes geometry and the backing raster when s differs from the
// current surface. It reports whether anything changed.
func (v *Visualizer) Resize(s Surface) bool {
	if v.raster != nil && s == v.surface {
		return false
	}
	v.surface = s
	v.geom = Compute(s)
	v.raster = NewRaster(v.geom.PixelWidth, v.geom.PixelHeight)
	log.Printf("Grid resized: %dx%d dots on %dx%d px", v.geom.Columns, v.geom.Rows, v.geom.PixelWidth, v.geom.PixelHeight)
	return true
}

func (v *Visualizer) Surface() Surface   { return v.surface }
func (v *Visualizer) Geometry() Geometry { return v.geom }
func (v *Visualizer) Raster() *Raster    { return v.raster }
func (v *Visualizer) Last() Frame        { return v.last }

// Draw renders one frame. Geometry is read once up front so a resize can only
// take effect between frames. A closed visualizer draws nothing.
func (v *Visualizer) Draw(snapshot []uint8, playing bool) Frame {
	if v.closed {
		return v.last
	}
	g, r := v.geom, v.raster
	f := NewFrame(g, snapshot, playing)
	r.Draw(f)
	v.last = f
	return f
}

// Close stops drawing for good.
func (v *Visualizer) Close() {
	v.closed = true
}

func (v *Visualizer) Closed() bool { return v.closed }
