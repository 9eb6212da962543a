package analysis

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/faiface/beep"
)

var ErrAlreadyBound = errors.New("graph is bound to another element; release it first")

// Element is the playback endpoint feeding the graph.
type Element interface {
	beep.Streamer
}

// Manager owns the single output context and the element -> tap -> output
// chain for at most one bound element. One Manager exists per process; it is
// created by main and handed to the session explicitly.
type Manager struct {
	mu        sync.Mutex
	newOutput func() Output
	out       Output
	analyser  *Analyser
	tap       *Tap
	bound     Element

	window []float64
	bins   []uint8
}

// NewManager returns a manager that builds its output with newOutput on first
// bind. newOutput is called at most once.
func NewManager(newOutput func() Output, fftSize int) *Manager {
	a := NewAnalyser(fftSize)
	return &Manager{
		newOutput: newOutput,
		analyser:  a,
		window:    make([]float64, a.FFTSize()),
		bins:      make([]uint8, a.FrequencyBinCount()),
	}
}

func (m *Manager) FrequencyBinCount() int {
	return m.analyser.FrequencyBinCount()
}

// Output returns the output context, or nil before the first bind.
func (m *Manager) Output() Output {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out
}

// Bound reports the currently bound element.
func (m *Manager) Bound() Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bound
}

// Bind builds the chain for el. Binding the element already bound is a no-op.
// Binding a different element fails with ErrAlreadyBound until Release.
func (m *Manager) Bind(el Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el == nil {
		return errors.New("cannot bind nil element")
	}
	if m.bound != nil {
		if m.bound == el {
			return nil
		}
		return ErrAlreadyBound
	}

	if m.out == nil {
		m.out = m.newOutput()
	}
	tap := NewTap(el, m.analyser.FFTSize())
	if err := m.out.Connect(tap); err != nil {
		return fmt.Errorf("connecting audio graph: %w", err)
	}
	m.tap = tap
	m.bound = el
	m.analyser.Reset()
	log.Printf("Audio graph bound (%d bins)", m.analyser.FrequencyBinCount())
	return nil
}

// Snapshot returns the current frequency magnitudes, low to high frequency,
// or nil when nothing is bound. The returned slice is owned by the caller.
func (m *Manager) Snapshot() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tap == nil {
		return nil
	}
	m.window = m.tap.Samples(m.window)
	m.bins = m.analyser.ByteFrequencyData(m.window, m.bins)
	out := make([]uint8, len(m.bins))
	copy(out, m.bins)
	return out
}

// Resume starts the output context pulling audio. Calling it while running
// or before any bind does nothing.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out == nil {
		return nil
	}
	if err := m.out.Resume(); err != nil {
		return fmt.Errorf("resuming audio output: %w", err)
	}
	return nil
}

// Suspend stops the output context pulling audio.
func (m *Manager) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out != nil {
		m.out.Suspend()
	}
}

// Release disconnects the chain. It is a no-op when nothing is bound.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bound == nil {
		return
	}
	m.out.Disconnect()
	m.tap.Clear()
	m.tap = nil
	m.bound = nil
	m.analyser.Reset()
	log.Printf("Audio graph released")
}
