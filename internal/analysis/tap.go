package analysis

import (
	"sync"

	"github.com/faiface/beep"
)

// Tap passes audio through unchanged while keeping the most recent mono
// samples in a ring buffer for analysis. Stream runs on the audio goroutine;
// Samples is called from the UI goroutine.
type Tap struct {
	s    beep.Streamer
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

func NewTap(s beep.Streamer, size int) *Tap {
	return &Tap{
		s:    s,
		buf:  make([]float64, size),
		size: size,
	}
}

func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mu.Lock()
	for i := range n {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
	return n, ok
}

func (t *Tap) Err() error {
	return t.s.Err()
}

// Samples copies the ring buffer into dst in chronological order.
func (t *Tap) Samples(dst []float64) []float64 {
	if cap(dst) < t.size {
		dst = make([]float64, t.size)
	}
	dst = dst[:t.size]
	t.mu.Lock()
	for i := range t.size {
		dst[i] = t.buf[(t.pos+i)%t.size]
	}
	t.mu.Unlock()
	return dst
}

// Clear zeroes the buffer so a released graph reports silence.
func (t *Tap) Clear() {
	t.mu.Lock()
	for i := range t.buf {
		t.buf[i] = 0
	}
	t.mu.Unlock()
}
