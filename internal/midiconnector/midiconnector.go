package midiconnector

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Controller mapping.
const (
	NotePlayPause   = 60
	NoteSkipBack    = 59
	NoteSkipForward = 61
	CCVolume        = 7
)

type Action int

const (
	ActionTogglePlay Action = iota
	ActionSkipBackward
	ActionSkipForward
	ActionVolume
)

func (a Action) String() string {
	switch a {
	case ActionTogglePlay:
		return "play/pause"
	case ActionSkipBackward:
		return "skip back"
	case ActionSkipForward:
		return "skip forward"
	case ActionVolume:
		return "volume"
	}
	return "unknown"
}

// Command is a transport request from the controller. Value is only set for
// ActionVolume, in [0,1].
type Command struct {
	Action Action
	Value  float64
}

// Map translates a MIDI message into a command.
func Map(msg midi.Message) (Command, bool) {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		switch key {
		case NotePlayPause:
			return Command{Action: ActionTogglePlay}, true
		case NoteSkipBack:
			return Command{Action: ActionSkipBackward}, true
		case NoteSkipForward:
			return Command{Action: ActionSkipForward}, true
		}
	case msg.GetControlChange(&ch, &cc, &val):
		if cc == CCVolume {
			return Command{Action: ActionVolume, Value: float64(val) / 127}, true
		}
	}
	return Command{}, false
}

// Devices lists MIDI input port names.
func Devices() []string {
	drv, err := rtmididrv.New()
	if err != nil {
		log.Printf("MIDI driver unavailable: %v", err)
		return nil
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		log.Printf("Error listing MIDI inputs: %v", err)
		return nil
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// Connector listens to one MIDI input.
type Connector struct {
	mu   sync.Mutex
	drv  *rtmididrv.Driver
	in   drivers.In
	stop func()
	name string
}

// Open connects to the first input whose name contains name (case
// insensitive) and calls handle for every mapped message. handle runs on the
// MIDI listener goroutine.
func Open(name string, handle func(Command)) (*Connector, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("listing midi inputs: %w", err)
	}
	var found drivers.In
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			found = in
			break
		}
	}
	if found == nil {
		drv.Close()
		return nil, fmt.Errorf("MIDI input %q not found", name)
	}
	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("opening MIDI input %q: %w", found.String(), err)
	}

	c := &Connector{drv: drv, in: found, name: found.String()}
	stop, err := midi.ListenTo(found, func(msg midi.Message, timestampms int32) {
		if cmd, ok := Map(msg); ok {
			log.Printf("MIDI %s -> %s", msg, cmd.Action)
			handle(cmd)
		}
	}, midi.HandleError(func(listenErr error) {
		log.Printf("MIDI listener error on %s: %v", c.name, listenErr)
	}))
	if err != nil {
		found.Close()
		drv.Close()
		return nil, fmt.Errorf("listening to %q: %w", found.String(), err)
	}
	c.stop = stop
	log.Printf("MIDI input connected: %s", c.name)
	return c, nil
}

func (c *Connector) Name() string { return c.name }

// Close stops listening and releases the port. Safe to call twice.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.in != nil {
		if err := c.in.Close(); err != nil {
			log.Printf("Error closing MIDI input: %v", err)
		}
		c.in = nil
	}
	if c.drv != nil {
		c.drv.Close()
		c.drv = nil
	}
	log.Printf("MIDI input closed: %s", c.name)
}
