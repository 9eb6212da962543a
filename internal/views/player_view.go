package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/schollz/dotmatrix/internal/grid"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/types"
)

const (
	// dotThreshold is the raster brightness at which a braille dot is set.
	dotThreshold = 0.12
	// dotShades is how many colours a dot can take between dim and lit.
	dotShades = 16
)

var (
	dotDim = colorful.Color{R: 0.14, G: 0.16, B: 0.22}
	dotLit = colorful.Color{R: 0.49, G: 0.98, B: 1}
)

// colorProfile is swapped in tests.
var colorProfile = lipgloss.ColorProfile

// RenderPlayerView draws the dot matrix and the waveform overview.
func RenderPlayerView(m *model.Model) string {
	cols, rows := m.MatrixCells()
	styles := getCommonStyles()

	return renderViewWithCommonPattern(m, "", sourceLabel(m, styles), func(styles *ViewStyles) string {
		var content strings.Builder
		content.WriteString(RenderMatrix(m.Visualizer.Raster(), cols, rows))
		content.WriteString("\n")
		content.WriteString(renderOverview(m, styles, cols))
		content.WriteString("\n")
		return content.String()
	}, "", rows+model.OverviewLines)
}

func sourceLabel(m *model.Model, styles *ViewStyles) string {
	switch m.Session.Kind() {
	case types.FileBacked:
		return styles.Label.Render("file")
	case types.StreamBacked:
		return styles.Error.Render("● ") + styles.Label.Render("live")
	}
	return ""
}

// dotStyles maps a shade to its foreground style, blending dim to lit in
// Lab space.
func dotStyles() []lipgloss.Style {
	styles := make([]lipgloss.Style, dotShades)
	for i := range styles {
		c := dotDim.BlendLab(dotLit, float64(i)/float64(dotShades-1)).Clamped()
		styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
	}
	return styles
}

func shadeOf(peak float64) int {
	return min(max(int(peak*float64(dotShades-1)+0.5), 0), dotShades-1)
}

// asciiDot stands in for a braille glyph on terminals without colour or
// unicode support.
func asciiDot(peak float64) rune {
	switch {
	case peak >= 0.6:
		return '•'
	case peak > dotThreshold:
		return '·'
	}
	return ' '
}

// RenderMatrix packs the raster into cols x rows braille cells. Each cell is
// coloured by its brightest pixel; consecutive cells of the same shade share
// one styled run.
func RenderMatrix(r *grid.Raster, cols, rows int) string {
	ascii := colorProfile() == termenv.Ascii
	styles := dotStyles()

	var sb strings.Builder
	var run strings.Builder
	for cy := 0; cy < rows; cy++ {
		shade := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if ascii {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(styles[shade].Render(run.String()))
			}
			run.Reset()
		}
		for cx := 0; cx < cols; cx++ {
			glyph, peak := r.Braille(cx, cy, dotThreshold)
			if ascii {
				glyph = asciiDot(peak)
			}
			if s := shadeOf(peak); s != shade {
				flush()
				shade = s
			}
			run.WriteRune(glyph)
		}
		flush()
		if cy < rows-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
