package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audpbx/audio"
	"github.com/ik5/audpbx/formats/aiff"
)

var (
	ErrNotAudio    = errors.New("not an audio file")
	ErrUnsupported = errors.New("unsupported audio format")
)

// audioTypes covers extensions the system mime table often lacks or maps to
// non-audio types.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".opus": "audio/opus",
	".weba": "audio/webm",
}

// MediaType returns the media type implied by the file extension, without
// parameters. Unknown extensions give "".
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	t, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return t
}

// Extensions lists the file extensions Open can decode, sorted.
func Extensions() []string {
	var exts []string
	for ext, t := range audioTypes {
		switch t {
		case "audio/mpeg", "audio/wav", "audio/ogg", "audio/flac", "audio/aiff":
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// IsAudio reports whether path looks like an audio file.
func IsAudio(path string) bool {
	return strings.HasPrefix(MediaType(path), "audio/")
}

// File is a decoded audio file. It owns the underlying file handle until
// Close.
type File struct {
	path   string
	stream beep.StreamSeekCloser
	format beep.Format

	mu     sync.Mutex
	closed bool
}

// Open validates and decodes the audio file at path. Nothing stays open when
// an error is returned.
func Open(path string) (*File, error) {
	mt := MediaType(path)
	if !strings.HasPrefix(mt, "audio/") {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotAudio)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}

	stream, format, err := decode(f, mt)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	log.Printf("Opened %s (%s, %d Hz, %d ch)", path, mt, format.SampleRate, format.NumChannels)
	return &File{path: path, stream: stream, format: format}, nil
}

func decode(f *os.File, mediaType string) (beep.StreamSeekCloser, beep.Format, error) {
	switch mediaType {
	case "audio/mpeg":
		return mp3.Decode(f)
	case "audio/wav":
		if !gowav.NewDecoder(f).IsValidFile() {
			return nil, beep.Format{}, errors.New("invalid wav header")
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, beep.Format{}, err
		}
		return wav.Decode(f)
	case "audio/ogg":
		return vorbis.Decode(f)
	case "audio/flac":
		return flac.Decode(f)
	case "audio/aiff":
		src, err := aiff.Decoder{}.Decode(f)
		if err != nil {
			return nil, beep.Format{}, err
		}
		defer src.Close()
		s, format, err := bufferSource(src)
		if err != nil {
			return nil, beep.Format{}, err
		}
		// Fully buffered, the file handle is no longer needed.
		f.Close()
		return s, format, nil
	default:
		return nil, beep.Format{}, fmt.Errorf("%s: %w", mediaType, ErrUnsupported)
	}
}

type bufferedStream struct {
	beep.StreamSeeker
}

func (bufferedStream) Close() error { return nil }

// bufferSource reads an audpbx source to the end into a seekable beep buffer.
func bufferSource(src audio.Source) (beep.StreamSeekCloser, beep.Format, error) {
	channels := src.Channels()
	if channels < 1 {
		return nil, beep.Format{}, errors.New("source has no channels")
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(src.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	var frames [][2]float64
	chunk := make([]float32, 4096*channels)
	for {
		n, err := src.ReadSamples(chunk)
		for i := 0; i+channels <= n; i += channels {
			l := float64(chunk[i])
			r := l
			if channels > 1 {
				r = float64(chunk[i+1])
			}
			frames = append(frames, [2]float64{l, r})
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, beep.Format{}, err
		}
		if n == 0 {
			break
		}
	}

	buf := beep.NewBuffer(format)
	pos := 0
	buf.Append(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := copy(samples, frames[pos:])
		pos += n
		return n, true
	}))
	return bufferedStream{buf.Streamer(0, buf.Len())}, format, nil
}

func (f *File) Path() string        { return f.path }
func (f *File) Format() beep.Format { return f.format }

func (f *File) Stream(samples [][2]float64) (int, bool) { return f.stream.Stream(samples) }
func (f *File) Err() error                               { return f.stream.Err() }
func (f *File) Len() int                                 { return f.stream.Len() }
func (f *File) Position() int                            { return f.stream.Position() }
func (f *File) Seek(p int) error                         { return f.stream.Seek(p) }

// Close releases the decoder and file handle. Later calls do nothing.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	log.Printf("Closed %s", f.path)
	return f.stream.Close()
}

// Closed reports whether Close has run.
func (f *File) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
