// Package spectrum renders a file's frequency snapshots offline, one frame per
// interval, without an audio device.
package spectrum

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/ik5/audpbx/audio"
	"github.com/ik5/audpbx/formats/aiff"
	"github.com/ik5/audpbx/formats/mp3"
	"github.com/ik5/audpbx/formats/vorbis"
	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/dotmatrix/internal/analysis"
	"github.com/schollz/dotmatrix/internal/source"
)

const DefaultInterval = 50 * time.Millisecond

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is one snapshot at time T seconds into the file.
type Frame struct {
	T    float64 `json:"t"`
	Bins []int   `json:"bins"`
}

type Options struct {
	FFTSize  int
	Interval time.Duration
}

func (o Options) withDefaults() Options {
	if o.FFTSize == 0 {
		o.FFTSize = analysis.DefaultFFTSize
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// NewRegistry returns decoders keyed by media type.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("audio/wav", wavDecoder{})
	r.Register("audio/mpeg", mp3.Decoder{})
	r.Register("audio/ogg", vorbis.Decoder{})
	r.Register("audio/aiff", aiff.Decoder{})
	return r
}

var registry = NewRegistry()

// Open decodes path with the decoder registered for its media type.
func Open(path string) (audio.Source, io.Closer, error) {
	mediaType := source.MediaType(path)
	if !source.IsAudio(path) {
		return nil, nil, fmt.Errorf("%s: %w", path, source.ErrNotAudio)
	}
	dec, ok := registry.Get(mediaType)
	if !ok {
		return nil, nil, fmt.Errorf("%s (%s): %w", path, mediaType, source.ErrUnsupported)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return src, f, nil
}

// Analyze decodes path and calls emit for every frame. emit returning an
// error stops the analysis with that error.
func Analyze(path string, opts Options, emit func(Frame) error) error {
	src, f, err := Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	defer src.Close()
	log.Printf("Analyzing %s: %d Hz, %d channels", path, src.SampleRate(), src.Channels())
	return AnalyzeSource(src, opts, emit)
}

// AnalyzeSource mixes src to mono and emits a frame every interval of audio
// time, plus one for any trailing partial interval. Each frame analyses the
// most recent FFT-size samples, zero padded at the start of the stream.
func AnalyzeSource(src audio.Source, opts Options, emit func(Frame) error) error {
	opts = opts.withDefaults()
	mono := audio.NewMonoMixer(src)
	rate := mono.SampleRate()
	if rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", rate)
	}
	hop := int(opts.Interval.Seconds() * float64(rate))
	if hop < 1 {
		hop = 1
	}

	an := analysis.NewAnalyser(opts.FFTSize)
	size := an.FFTSize()
	ring := make([]float64, size)
	window := make([]float64, size)
	bins := make([]uint8, an.FrequencyBinCount())
	pos := 0
	consumed := 0
	pending := 0

	flush := func() error {
		n := copy(window, ring[pos:])
		copy(window[n:], ring[:pos])
		bins = an.ByteFrequencyData(window, bins)
		frame := Frame{T: float64(consumed) / float64(rate), Bins: make([]int, len(bins))}
		for i, b := range bins {
			frame.Bins[i] = int(b)
		}
		pending = 0
		return emit(frame)
	}

	buf := make([]float32, 4096)
	for {
		n, err := mono.ReadSamples(buf)
		for _, v := range buf[:n] {
			ring[pos] = float64(v)
			pos = (pos + 1) % size
			consumed++
			pending++
			if pending == hop {
				if emitErr := flush(); emitErr != nil {
					return emitErr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if pending > 0 {
		return flush()
	}
	return nil
}

// WriteJSONLines analyses path and writes one JSON object per frame.
func WriteJSONLines(w io.Writer, path string, opts Options) error {
	enc := json.NewEncoder(w)
	return Analyze(path, opts, func(f Frame) error {
		return enc.Encode(f)
	})
}
