package source

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/dotmatrix/internal/types"
)

func writeTone(t *testing.T, path string, rate, n int) {
	t.Helper()
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, n),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := gowav.NewEncoder(f, rate, 16, 1, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestParseTrackInfo(t *testing.T) {
	tests := []struct {
		name string
		want types.TrackInfo
	}{
		{"Artist - Title.mp3", types.TrackInfo{Artist: "Artist", Title: "Title"}},
		{"TrackOnly.mp3", types.TrackInfo{Title: "TrackOnly"}},
		{"A-B-C.mp3", types.TrackInfo{Artist: "A", Title: "B-C"}},
		{"Boards of Canada - Roygbiv - Live.flac", types.TrackInfo{Artist: "Boards of Canada", Title: "Roygbiv - Live"}},
		{"  spaced  -  out .wav", types.TrackInfo{Artist: "spaced", Title: "out"}},
		{"/music/dir/Some.Name.With.Dots.ogg", types.TrackInfo{Title: "Some.Name.With.Dots"}},
		{"noext", types.TrackInfo{Title: "noext"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTrackInfo(tt.name))
		})
	}
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", MediaType("song.MP3"))
	assert.Equal(t, "audio/wav", MediaType("a/b/c.wav"))
	assert.Equal(t, "audio/flac", MediaType("x.flac"))
	assert.Equal(t, "audio/aiff", MediaType("x.aif"))
	assert.Equal(t, "", MediaType("README"))
	assert.True(t, IsAudio("x.ogg"))
	assert.False(t, IsAudio("notes.txt"))
	assert.False(t, IsAudio("photo.png"))
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	assert.Contains(t, exts, ".mp3")
	assert.Contains(t, exts, ".aiff")
	assert.NotContains(t, exts, ".m4a", "listed only when decodable")
	assert.IsIncreasing(t, exts)
}

func TestOpenRejectsNonAudio(t *testing.T) {
	_, err := Open("notes.txt")
	assert.ErrorIs(t, err, ErrNotAudio)

	_, err = Open("cover.png")
	assert.ErrorIs(t, err, ErrNotAudio)
}

func TestOpenUnsupportedAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.m4a")
	require.NoError(t, os.WriteFile(path, []byte("not really"), 0o644))
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "gone.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenCorruptWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff"), 0o644))
	_, err := Open(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAudio)
}

func TestOpenWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Tester - Tone.wav")
	writeTone(t, path, 22050, 22050)

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	assert.Equal(t, 22050, int(f.Format().SampleRate))
	assert.Equal(t, 22050, f.Len())

	buf := make([][2]float64, 512)
	n, ok := f.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 512, n)
	assert.Equal(t, 512, f.Position())

	require.NoError(t, f.Seek(0))
	assert.Zero(t, f.Position())

	assert.NoError(t, f.Close())
	assert.True(t, f.Closed())
	assert.NoError(t, f.Close(), "second close is a no-op")
}
