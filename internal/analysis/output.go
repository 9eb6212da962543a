package analysis

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output is the audio processing context the graph terminates in.
type Output interface {
	SampleRate() beep.SampleRate
	// Connect starts pulling from s. The context begins suspended.
	Connect(s beep.Streamer) error
	Disconnect()
	Resume() error
	Suspend()
}

// The speaker device can only be initialised once per process.
var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

// SpeakerOutput plays through the system audio device.
type SpeakerOutput struct {
	rate beep.SampleRate
	mu   sync.Mutex
	ctrl *beep.Ctrl
}

func NewSpeakerOutput(sampleRate int) *SpeakerOutput {
	return &SpeakerOutput{rate: beep.SampleRate(sampleRate)}
}

func (o *SpeakerOutput) SampleRate() beep.SampleRate {
	if speakerRate != 0 {
		return speakerRate
	}
	return o.rate
}

func (o *SpeakerOutput) init() error {
	speakerOnce.Do(func() {
		speakerRate = o.rate
		speakerErr = speaker.Init(o.rate, o.rate.N(time.Second/10))
		if speakerErr != nil {
			log.Printf("Error initializing speaker: %v", speakerErr)
		} else {
			log.Printf("Speaker initialized at %d Hz", o.rate)
		}
	})
	if speakerErr != nil {
		return fmt.Errorf("audio output unavailable: %w", speakerErr)
	}
	return nil
}

func (o *SpeakerOutput) Connect(s beep.Streamer) error {
	if err := o.init(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	speaker.Play(o.ctrl)
	return nil
}

func (o *SpeakerOutput) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	speaker.Clear()
	o.ctrl = nil
}

func (o *SpeakerOutput) Resume() error {
	return o.setPaused(false)
}

func (o *SpeakerOutput) Suspend() {
	_ = o.setPaused(true)
}

func (o *SpeakerOutput) setPaused(paused bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return nil
	}
	speaker.Lock()
	o.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}
