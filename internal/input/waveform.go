package input

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/gowaveform"

	"github.com/schollz/dotmatrix/internal/model"
)

// OverviewMsg delivers a loaded waveform for Path.
type OverviewMsg struct {
	Path     string
	Duration time.Duration
	Peaks    model.PeaksFunc
	Err      error
}

// loadWaveform is swapped in tests.
var loadWaveform = func(path string) (model.PeaksFunc, error) {
	wf, err := gowaveform.LoadWaveform(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load waveform: %w", err)
	}
	return func(start, end float64, width int) ([]float64, error) {
		view, err := wf.GenerateView(gowaveform.WaveformOptions{
			Start: start,
			End:   end,
			Width: width,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate view: %w", err)
		}
		if view == nil {
			return nil, nil
		}
		peaks := make([]float64, len(view.Data))
		for i, v := range view.Data {
			peaks[i] = float64(v)
		}
		return peaks, nil
	}, nil
}

// LoadOverview reads the waveform of path off the UI goroutine.
func LoadOverview(path string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		peaks, err := loadWaveform(path)
		return OverviewMsg{Path: path, Duration: d, Peaks: peaks, Err: err}
	}
}

// HandleOverview installs a loaded waveform if it still belongs to the
// attached file.
func HandleOverview(m *model.Model, msg OverviewMsg) {
	if msg.Path != m.Overview.File {
		return
	}
	if msg.Err != nil {
		log.Printf("Waveform overview unavailable for %s: %v", msg.Path, msg.Err)
		m.Overview.Loading = false
		return
	}
	m.ResetOverview(msg.Path, msg.Duration, msg.Peaks)
}
