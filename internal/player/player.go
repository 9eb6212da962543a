package player

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

var ErrNoSource = errors.New("no source loaded")

// resampleQuality matches beep's recommended default.
const resampleQuality = 4

// Source is anything the player can pull audio from. Sources that also
// implement beep.StreamSeeker are seekable and have a known duration.
type Source interface {
	beep.Streamer
	Format() beep.Format
}

type EventKind int

const (
	EventEnded EventKind = iota
	EventError
)

func (k EventKind) String() string {
	if k == EventError {
		return "error"
	}
	return "ended"
}

type Event struct {
	Kind EventKind
	Err  error
}

// Player is the single playback element. It is a beep.Streamer that never
// drains: with no source, or while paused, it produces silence so the output
// chain can stay connected.
type Player struct {
	mu   sync.Mutex
	rate beep.SampleRate

	src    Source
	seeker beep.StreamSeeker
	chain  beep.Streamer
	gain   *effects.Gain

	paused bool
	ended  bool
	volume float64
	muted  bool
	played int

	events chan Event
}

// New returns a paused player producing audio at rate.
func New(rate beep.SampleRate) *Player {
	return &Player{
		rate:   rate,
		paused: true,
		volume: 1,
		events: make(chan Event, 8),
	}
}

func (p *Player) SampleRate() beep.SampleRate { return p.rate }

// Events delivers completion and error notifications.
func (p *Player) Events() <-chan Event { return p.events }

// SetSource replaces the current source and leaves the player paused at the
// start of it. The previous source is not closed.
func (p *Player) SetSource(src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = src
	p.seeker, _ = src.(beep.StreamSeeker)
	p.paused = true
	p.ended = false
	p.played = 0
	p.rebuild()
}

// ClearSource detaches the current source without closing it.
func (p *Player) ClearSource() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = nil
	p.seeker = nil
	p.chain = nil
	p.gain = nil
	p.paused = true
	p.ended = false
	p.played = 0
}

func (p *Player) HasSource() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src != nil
}

// rebuild recreates the resample and gain stages. Called with mu held.
func (p *Player) rebuild() {
	if p.src == nil {
		return
	}
	var s beep.Streamer = p.src
	if from := p.src.Format().SampleRate; from != 0 && from != p.rate {
		s = beep.Resample(resampleQuality, from, p.rate, s)
	}
	p.gain = &effects.Gain{Streamer: s}
	p.applyGain()
	p.chain = p.gain
}

func (p *Player) applyGain() {
	if p.gain == nil {
		return
	}
	if p.muted {
		p.gain.Gain = -1
		return
	}
	p.gain.Gain = p.volume - 1
}

func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil {
		return ErrNoSource
	}
	if p.ended && p.seeker != nil {
		if err := p.seeker.Seek(0); err != nil {
			return err
		}
		p.rebuild()
	}
	p.ended = false
	p.paused = false
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Seekable reports whether the current source supports seeking.
func (p *Player) Seekable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seeker != nil
}

// CurrentTime is the position within a seekable source, or the time played
// so far for a live one.
func (p *Player) CurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil {
		return 0
	}
	if p.seeker != nil {
		return p.src.Format().SampleRate.D(p.seeker.Position())
	}
	return p.rate.D(p.played)
}

// Duration is zero for live sources.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seeker == nil {
		return 0
	}
	return p.src.Format().SampleRate.D(p.seeker.Len())
}

// SetCurrentTime seeks within a seekable source, clamped to its bounds.
// It does nothing for live sources.
func (p *Player) SetCurrentTime(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seeker == nil {
		return nil
	}
	pos := p.src.Format().SampleRate.N(d)
	if pos < 0 {
		pos = 0
	}
	if n := p.seeker.Len(); pos > n {
		pos = n
	}
	if err := p.seeker.Seek(pos); err != nil {
		return err
	}
	p.ended = false
	p.rebuild()
	return nil
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume clamps v to [0,1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = max(0, min(1, v))
	p.applyGain()
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	p.applyGain()
}

// Stream implements beep.Streamer. It always fills samples and never ends.
func (p *Player) Stream(samples [][2]float64) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chain == nil || p.paused {
		silence(samples)
		return len(samples), true
	}

	n, ok := p.chain.Stream(samples)
	p.played += n
	silence(samples[n:])
	if !ok {
		p.paused = true
		p.ended = true
		if err := p.src.Err(); err != nil {
			log.Printf("Playback error: %v", err)
			p.emit(Event{Kind: EventError, Err: err})
		} else {
			log.Printf("Playback ended")
			p.emit(Event{Kind: EventEnded})
		}
	}
	return len(samples), true
}

func (p *Player) Err() error { return nil }

// emit never blocks the audio goroutine.
func (p *Player) emit(e Event) {
	select {
	case p.events <- e:
	default:
		log.Printf("Dropped player event: %s", e.Kind)
	}
}

// Close detaches the source and pauses.
func (p *Player) Close() {
	p.ClearSource()
}

func silence(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
}
