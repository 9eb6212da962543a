package views

import (
	"log"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/types"
)

// segmentsPerChar is the vertical resolution of one block glyph.
const segmentsPerChar = 8

// upperBlocks hang from the top of a cell, indexed by filled eighths.
var upperBlocks = []string{" ", "▔", "🮂", "🮃", "▀", "🮄", "🮅", "🮆", "█"}

// lowerBlocks grow from the bottom of a cell.
var lowerBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// renderOverview draws the two-line waveform strip: the upper line holds
// the positive half growing up from the centre, the lower line the negative
// half hanging down. The playhead column is highlighted and the part already
// played is drawn brighter.
func renderOverview(m *model.Model, styles *ViewStyles, width int) string {
	o := &m.Overview
	switch {
	case m.Session.Kind() == types.StreamBacked:
		return styles.Label.Render("live input, no waveform") + "\n"
	case o.Loading:
		return styles.Label.Render("loading waveform...") + "\n"
	case !o.Ready():
		if o.File != "" {
			return styles.Label.Render("waveform unavailable") + "\n"
		}
		return "\n"
	}

	peaks, err := o.Peaks(width)
	if err != nil {
		log.Printf("Error rendering overview: %v", err)
		return styles.Label.Render("waveform unavailable") + "\n"
	}
	up, down := waveformCells(peaks, width)
	playhead := o.PlayheadColumn(m.Session.Position().Seconds(), width)

	played := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	head := styles.Playback
	rest := styles.Label

	var sb strings.Builder
	for row, glyphs := range [][]string{up, down} {
		for _, seg := range splitRuns(width, playhead) {
			style := rest
			switch {
			case seg.from == playhead:
				style = head
			case playhead >= 0 && seg.to <= playhead:
				style = played
			}
			sb.WriteString(style.Render(strings.Join(glyphs[seg.from:seg.to], "")))
		}
		if row == 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

type span struct{ from, to int }

// splitRuns cuts [0,width) into the runs before, at and after the playhead.
func splitRuns(width, playhead int) []span {
	if playhead < 0 || playhead >= width {
		return []span{{0, width}}
	}
	runs := make([]span, 0, 3)
	if playhead > 0 {
		runs = append(runs, span{0, playhead})
	}
	runs = append(runs, span{playhead, playhead + 1})
	if playhead+1 < width {
		runs = append(runs, span{playhead + 1, width})
	}
	return runs
}

// waveformCells turns min/max pairs into the glyphs of the upper and lower
// strip lines, normalised to the loudest peak in view.
func waveformCells(peaks []float64, width int) (up, down []string) {
	up = make([]string, width)
	down = make([]string, width)
	for i := range up {
		up[i], down[i] = " ", " "
	}

	var maxAbs float64
	for _, v := range peaks {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	for i := 0; i < len(peaks)/2 && i < width; i++ {
		minVal, maxVal := peaks[i*2], peaks[i*2+1]
		up[i] = lowerBlocks[extent(maxVal, maxAbs)]
		down[i] = upperBlocks[extent(-minVal, maxAbs)]
	}
	return up, down
}

func extent(v, maxAbs float64) int {
	if v <= 0 {
		return 0
	}
	n := int(math.Round(v / maxAbs * segmentsPerChar))
	return min(max(n, 1), segmentsPerChar)
}
