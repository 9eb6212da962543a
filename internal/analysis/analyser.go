package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	// DefaultFFTSize gives 128 frequency bins.
	DefaultFFTSize = 256

	smoothingTimeConstant = 0.8
	minDecibels           = -100.0
	maxDecibels           = -30.0
)

// Analyser turns a window of time-domain samples into byte-scaled frequency
// magnitudes, smoothed over successive calls.
type Analyser struct {
	fftSize  int
	window   []float64
	smoothed []float64
	scratch  []float64
}

// NewAnalyser returns an analyser for the given power-of-two fftSize.
func NewAnalyser(fftSize int) *Analyser {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		fftSize = DefaultFFTSize
	}
	return &Analyser{
		fftSize:  fftSize,
		window:   window.Blackman(fftSize),
		smoothed: make([]float64, fftSize/2),
		scratch:  make([]float64, fftSize),
	}
}

func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// ByteFrequencyData analyses the last FFTSize samples of timeDomain (zero
// padded at the front when shorter) and writes one byte per bin into dst,
// lowest frequency first. dst is allocated when too small.
func (a *Analyser) ByteFrequencyData(timeDomain []float64, dst []uint8) []uint8 {
	bins := a.FrequencyBinCount()
	if cap(dst) < bins {
		dst = make([]uint8, bins)
	}
	dst = dst[:bins]

	for i := range a.scratch {
		a.scratch[i] = 0
	}
	if len(timeDomain) > a.fftSize {
		timeDomain = timeDomain[len(timeDomain)-a.fftSize:]
	}
	copy(a.scratch[a.fftSize-len(timeDomain):], timeDomain)
	for i := range a.scratch {
		a.scratch[i] *= a.window[i]
	}

	spectrum := fft.FFTReal(a.scratch)
	scale := 1 / float64(a.fftSize)
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(spectrum[k]) * scale
		a.smoothed[k] = smoothingTimeConstant*a.smoothed[k] + (1-smoothingTimeConstant)*mag
		dst[k] = toByte(a.smoothed[k])
	}
	return dst
}

// Reset drops the smoothing history.
func (a *Analyser) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

func toByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
	switch {
	case scaled <= 0 || math.IsNaN(scaled):
		return 0
	case scaled >= 255:
		return 255
	default:
		return uint8(scaled)
	}
}
