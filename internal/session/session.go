package session

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/dotmatrix/internal/analysis"
	"github.com/schollz/dotmatrix/internal/player"
	"github.com/schollz/dotmatrix/internal/source"
	"github.com/schollz/dotmatrix/internal/types"
)

var ErrNoSource = errors.New("no audio source loaded")

// DefaultSkip is the relative seek step.
const DefaultSkip = 10 * time.Second

// Element is the playback endpoint the session drives.
type Element interface {
	analysis.Element
	SetSource(player.Source)
	ClearSource()
	Play() error
	Pause()
	CurrentTime() time.Duration
	SetCurrentTime(time.Duration) error
	Duration() time.Duration
	Volume() float64
	SetVolume(float64)
	Muted() bool
	SetMuted(bool)
}

// Graph is the shared analysis graph. Only the session binds and releases it.
type Graph interface {
	Bind(analysis.Element) error
	Resume() error
	Release()
	Snapshot() []uint8
	FrequencyBinCount() int
}

// MediaFile is an opened, decoded file.
type MediaFile interface {
	player.Source
	Path() string
	Close() error
}

// CapturedStream is a live stream whose device stays open until Stop.
type CapturedStream interface {
	player.Source
	Stop() error
}

// Opener validates and opens a file.
type Opener func(path string) (MediaFile, error)

// OpenFile opens audio files from disk.
func OpenFile(path string) (MediaFile, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Session mediates between sources, the playback element and the graph.
type Session struct {
	mu    sync.Mutex
	el    Element
	graph Graph
	open  Opener
	skip  time.Duration

	kind   types.SourceKind
	state  types.TransportState
	track  types.TrackInfo
	file   MediaFile
	stream CapturedStream
	closed bool
}

func New(el Element, graph Graph, open Opener, skip time.Duration) *Session {
	if open == nil {
		open = OpenFile
	}
	if skip <= 0 {
		skip = DefaultSkip
	}
	return &Session{el: el, graph: graph, open: open, skip: skip}
}

// AttachFile opens path and starts playing it. A file that fails to open
// leaves the current source untouched.
func (s *Session) AttachFile(path string) error {
	f, err := s.open(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseSource()
	s.el.SetSource(f)
	if err := s.graph.Bind(s.el); err != nil {
		s.el.ClearSource()
		closeQuietly(f)
		return fmt.Errorf("binding audio graph: %w", err)
	}
	s.file = f
	s.kind = types.FileBacked
	s.track = source.ParseTrackInfo(path)
	log.Printf("Attached file %s", filepath.Base(path))
	return s.play()
}

// AttachCapturedStream switches to a live stream. A nil or empty info falls
// back to the captured-audio placeholder.
func (s *Session) AttachCapturedStream(stream CapturedStream, info *types.TrackInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseSource()
	s.el.SetSource(stream)
	if err := s.graph.Bind(s.el); err != nil {
		s.el.ClearSource()
		stopQuietly(stream)
		return fmt.Errorf("binding audio graph: %w", err)
	}
	s.stream = stream
	s.kind = types.StreamBacked
	if info != nil && !info.IsZero() {
		s.track = *info
	} else {
		s.track = types.TrackInfo{Title: types.CapturedTitle, Artist: types.CapturedArtist}
	}
	log.Printf("Attached captured stream")
	return s.play()
}

// releaseSource detaches and frees the current source. Called with mu held.
func (s *Session) releaseSource() {
	if s.kind == types.NoSource {
		return
	}
	s.el.Pause()
	s.el.ClearSource()
	if s.file != nil {
		closeQuietly(s.file)
		s.file = nil
	}
	if s.stream != nil {
		stopQuietly(s.stream)
		s.stream = nil
	}
	s.kind = types.NoSource
	s.state = types.Stopped
	s.track = types.TrackInfo{}
}

func closeQuietly(f MediaFile) {
	if err := f.Close(); err != nil {
		log.Printf("Error closing %s: %v", f.Path(), err)
	}
}

func stopQuietly(st CapturedStream) {
	if err := st.Stop(); err != nil {
		log.Printf("Error stopping captured stream: %v", err)
	}
}

// Play resumes playback, or fails with ErrNoSource leaving state unchanged.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play()
}

func (s *Session) play() error {
	if s.kind == types.NoSource {
		return ErrNoSource
	}
	if err := s.graph.Resume(); err != nil {
		s.revert()
		return fmt.Errorf("starting playback: %w", err)
	}
	if err := s.el.Play(); err != nil {
		s.revert()
		return fmt.Errorf("starting playback: %w", err)
	}
	s.state = types.Playing
	return nil
}

// revert drops back to a not-playing state after a failure.
func (s *Session) revert() {
	s.el.Pause()
	if s.state == types.Playing {
		s.state = types.Paused
	}
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.el.Pause()
	if s.state == types.Playing {
		s.state = types.Paused
	}
}

// TogglePlay pauses while playing and plays otherwise.
func (s *Session) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == types.Playing {
		s.el.Pause()
		s.state = types.Paused
		return nil
	}
	return s.play()
}

// Seek moves to d, clamped to [0, duration]. Live streams are not seekable.
func (s *Session) Seek(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seek(d)
}

func (s *Session) seek(d time.Duration) error {
	if s.kind != types.FileBacked {
		return nil
	}
	d = max(d, 0)
	if dur := s.el.Duration(); dur > 0 {
		d = min(d, dur)
	}
	return s.el.SetCurrentTime(d)
}

func (s *Session) SkipForward() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seek(s.el.CurrentTime() + s.skip)
}

func (s *Session) SkipBackward() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seek(s.el.CurrentTime() - s.skip)
}

// SeekBy moves relative to the current position.
func (s *Session) SeekBy(delta time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seek(s.el.CurrentTime() + delta)
}

// SetVolume clamps v to [0,1]; a positive volume unmutes.
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v = max(0, min(1, v))
	s.el.SetVolume(v)
	if v > 0 && s.el.Muted() {
		s.el.SetMuted(false)
	}
}

func (s *Session) ToggleMute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.el.SetMuted(!s.el.Muted())
}

// HandleEnded resets to Stopped at the start of the source.
func (s *Session) HandleEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.el.Pause()
	s.state = types.Stopped
	if s.kind == types.FileBacked {
		if err := s.el.SetCurrentTime(0); err != nil {
			log.Printf("Error rewinding: %v", err)
		}
	}
	log.Printf("Playback ended")
}

// HandleError reverts to not-playing and returns the error to report.
func (s *Session) HandleError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revert()
	log.Printf("Playback error: %v", err)
	return fmt.Errorf("playback failed: %w", err)
}

// Close releases the source and the graph. Later calls do nothing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.releaseSource()
	s.graph.Release()
	log.Printf("Session closed")
}

func (s *Session) State() types.TransportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Kind() types.SourceKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

func (s *Session) Track() types.TrackInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// FilePath is the attached file, or "" when none.
func (s *Session) FilePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Path()
}

func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind == types.NoSource {
		return 0
	}
	return s.el.CurrentTime()
}

// Duration is zero for live streams and when nothing is attached.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != types.FileBacked {
		return 0
	}
	return s.el.Duration()
}

func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.el.Volume()
}

func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.el.Muted()
}

func (s *Session) Snapshot() []uint8 {
	return s.graph.Snapshot()
}

func (s *Session) FrequencyBinCount() int {
	return s.graph.FrequencyBinCount()
}
