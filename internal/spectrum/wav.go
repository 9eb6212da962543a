package spectrum

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audpbx/audio"
)

var ErrInvalidWav = errors.New("invalid WAV file")

// wavSource adapts a go-audio WAV decoder to audio.Source.
type wavSource struct {
	dec    *gowav.Decoder
	format *goaudio.Format
	scale  float32
	intBuf *goaudio.IntBuffer
}

func (s *wavSource) SampleRate() int { return s.format.SampleRate }
func (s *wavSource) Channels() int   { return s.format.NumChannels }
func (s *wavSource) Close() error    { return nil }
func (s *wavSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, len(dst)), Format: s.format}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(s.intBuf.Data[i]) / s.scale
	}
	if n < len(dst) && err == nil {
		return n, io.EOF
	}
	return n, err
}

// wavDecoder decodes PCM WAV of any bit depth go-audio understands.
type wavDecoder struct{}

func (wavDecoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWav
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locating PCM data: %w", err)
	}
	format := dec.Format()
	depth := int(dec.SampleBitDepth())
	if format == nil || format.NumChannels < 1 || depth == 0 {
		return nil, ErrInvalidWav
	}
	return &wavSource{
		dec:    dec,
		format: format,
		scale:  float32(math.Pow(2, float64(depth-1))),
	}, nil
}
