package capture

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is the production capture backend.
type PortAudio struct {
	mu      sync.Mutex
	started bool
	initErr error
}

func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// init starts portaudio on first use. A failed start is not retried.
func (p *PortAudio) init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started && p.initErr == nil {
		if err := portaudio.Initialize(); err != nil {
			log.Printf("Error initializing portaudio: %v", err)
			p.initErr = err
		} else {
			p.started = true
		}
	}
	if p.initErr != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, p.initErr)
	}
	return nil
}

// Terminate shuts portaudio down if it was started.
func (p *PortAudio) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	if err := portaudio.Terminate(); err != nil {
		log.Printf("Error terminating portaudio: %v", err)
	}
}

func (p *PortAudio) Devices() ([]Device, error) {
	if err := p.init(); err != nil {
		return nil, err
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var def *portaudio.DeviceInfo
	if d, err := portaudio.DefaultInputDevice(); err == nil {
		def = d
	}
	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		d := Device{
			Index:             i,
			Name:              info.Name,
			InputChannels:     info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           def != nil && info.Name == def.Name,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (p *PortAudio) Open(dev Device, channels int, sampleRate float64, frames int, callback func(in []float32)) (Handle, error) {
	if err := p.init(); err != nil {
		return nil, err
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if dev.Index < 0 || dev.Index >= len(infos) || infos[dev.Index].Name != dev.Name {
		return nil, fmt.Errorf("device %q is no longer available", dev.Name)
	}
	params := portaudio.LowLatencyParameters(infos[dev.Index], nil)
	params.Input.Channels = channels
	params.SampleRate = sampleRate
	params.FramesPerBuffer = frames
	stream, err := portaudio.OpenStream(params, func(in []float32) {
		callback(in)
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}
