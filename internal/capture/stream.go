package capture

import (
	"sync"

	"github.com/faiface/beep"
)

// bufferSeconds bounds how much captured audio waits for the player.
const bufferSeconds = 0.5

// Stream is a live captured audio source. The device callback pushes frames
// into a ring; Stream pulls them out, padding with silence on underrun.
type Stream struct {
	device   Device
	format   beep.Format
	channels int
	handle   Handle

	mu      sync.Mutex
	ring    [][2]float64
	head    int
	count   int
	stopped bool

	stopOnce sync.Once
	stopErr  error
}

func newStream(dev Device, sampleRate int) *Stream {
	channels := min(dev.InputChannels, 2)
	size := max(int(float64(sampleRate)*bufferSeconds), 1)
	return &Stream{
		device:   dev,
		channels: channels,
		format: beep.Format{
			SampleRate:  beep.SampleRate(sampleRate),
			NumChannels: 2,
			Precision:   2,
		},
		ring: make([][2]float64, size),
	}
}

func (s *Stream) Device() Device      { return s.device }
func (s *Stream) Format() beep.Format { return s.format }

// push runs on the device callback goroutine.
func (s *Stream) push(in []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	size := len(s.ring)
	for i := 0; i+s.channels <= len(in); i += s.channels {
		l := float64(in[i])
		r := l
		if s.channels > 1 {
			r = float64(in[i+1])
		}
		tail := (s.head + s.count) % size
		s.ring[tail] = [2]float64{l, r}
		if s.count < size {
			s.count++
		} else {
			// full, drop the oldest frame
			s.head = (s.head + 1) % size
		}
	}
}

// Stream implements beep.Streamer. It reports drained only after Stop.
func (s *Stream) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false
	}
	size := len(s.ring)
	n := min(len(samples), s.count)
	for i := range n {
		samples[i] = s.ring[s.head]
		s.head = (s.head + 1) % size
	}
	s.count -= n
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (s *Stream) Err() error { return nil }

// Stop ends capture and releases the device. Only the first call does work;
// later calls return the same result.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		if s.handle == nil {
			return
		}
		if err := s.handle.Stop(); err != nil {
			s.stopErr = err
		}
		if err := s.handle.Close(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
	})
	return s.stopErr
}

func (s *Stream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
