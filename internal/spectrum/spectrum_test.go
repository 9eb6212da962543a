package spectrum

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/dotmatrix/internal/source"
)

func writeWav(t *testing.T, path string, rate, channels, frames int, amp float64) {
	t.Helper()
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		v := int(amp * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := gowav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestAnalyzeFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWav(t, path, 22050, 2, 22050, 0.5)

	var frames []Frame
	err := Analyze(path, Options{FFTSize: 256, Interval: 100 * time.Millisecond}, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 10)
	for i, f := range frames {
		assert.InDelta(t, 0.1*float64(i+1), f.T, 1e-9)
		assert.Len(t, f.Bins, 128)
	}

	// 440 Hz at 22050/256 Hz per bin lands near bin 5
	last := frames[len(frames)-1].Bins
	assert.Greater(t, last[5], 0)
	assert.Greater(t, last[5], last[100])
}

func TestAnalyzeTrailingFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	writeWav(t, path, 8000, 1, 1000, 0.5)

	var ts []float64
	require.NoError(t, Analyze(path, Options{Interval: 100 * time.Millisecond}, func(f Frame) error {
		ts = append(ts, f.T)
		return nil
	}))
	assert.Equal(t, []float64{0.1, 0.125}, ts)
}

func TestAnalyzeSilence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeWav(t, path, 8000, 1, 800, 0)

	require.NoError(t, Analyze(path, Options{}, func(f Frame) error {
		for _, b := range f.Bins {
			assert.Zero(t, b)
		}
		return nil
	}))
}

func TestAnalyzeStopsOnEmitError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWav(t, path, 8000, 1, 8000, 0.5)

	stop := errors.New("enough")
	calls := 0
	err := Analyze(path, Options{}, func(Frame) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOpenRejects(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Open(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, source.ErrNotAudio)

	_, _, err = Open(filepath.Join(dir, "song.flac"))
	assert.ErrorIs(t, err, source.ErrUnsupported)

	_, _, err = Open(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not riff"), 0o644))
	_, _, err = Open(bad)
	assert.Error(t, err)
}

func TestWriteJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWav(t, path, 8000, 1, 1600, 0.5)

	var out bytes.Buffer
	require.NoError(t, WriteJSONLines(&out, path, Options{FFTSize: 64, Interval: 100 * time.Millisecond}))

	sc := bufio.NewScanner(&out)
	lines := 0
	for sc.Scan() {
		var f Frame
		require.NoError(t, json.Unmarshal(sc.Bytes(), &f))
		assert.Len(t, f.Bins, 32)
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestWavDecoderWithoutSeeker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWav(t, path, 8000, 1, 100, 0.5)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	src, err := wavDecoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, 8000, src.SampleRate())
	assert.Equal(t, 1, src.Channels())

	buf := make([]float32, 256)
	n, err := src.ReadSamples(buf)
	assert.Equal(t, 100, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.InDelta(t, 0.5*math.Sin(2*math.Pi*440/8000), float64(buf[1]), 1e-3)
}
