package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/schollz/dotmatrix/internal/types"
)

var (
	ErrCaptureInProgress = errors.New("a capture request is already in progress")
	ErrPermissionDenied  = errors.New("audio capture permission denied")
	ErrNoAudioTrack      = errors.New("selected source has no audio input")
	ErrCancelled         = errors.New("capture cancelled")
	ErrUnavailable       = errors.New("audio capture unavailable")
)

// Device is a capturable audio source.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	InputChannels     int
	DefaultSampleRate float64
	Default           bool
}

func (d Device) String() string {
	if d.HostAPI == "" {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.HostAPI)
}

// PickFunc asks the user which device to share. It may block until the user
// answers and should return ErrCancelled or ErrPermissionDenied when the user
// declines.
type PickFunc func(ctx context.Context, devices []Device) (Device, error)

// Handle is an open capture device.
type Handle interface {
	Start() error
	Stop() error
	Close() error
}

// Backend enumerates and opens capture devices. The callback receives
// interleaved samples with the requested channel count.
type Backend interface {
	Devices() ([]Device, error)
	Open(dev Device, channels int, sampleRate float64, frames int, callback func(in []float32)) (Handle, error)
}

// Negotiator runs capture negotiations against a backend. At most one
// negotiation runs at a time.
type Negotiator struct {
	backend    Backend
	sampleRate int
	frames     int

	inflight atomic.Bool

	mu         sync.Mutex
	permission types.PermissionState
}

func NewNegotiator(backend Backend, sampleRate, frames int) *Negotiator {
	return &Negotiator{
		backend:    backend,
		sampleRate: sampleRate,
		frames:     frames,
		permission: types.PermissionPrompt,
	}
}

// CheckPermission reports the last known permission state without asking.
func (n *Negotiator) CheckPermission() types.PermissionState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

func (n *Negotiator) setPermission(p types.PermissionState) {
	n.mu.Lock()
	n.permission = p
	n.mu.Unlock()
}

// RequestPermission opens the default input once and releases it straight
// away. It reports whether access was granted.
func (n *Negotiator) RequestPermission() bool {
	devices, err := n.backend.Devices()
	if err != nil {
		log.Printf("Permission probe: listing devices: %v", err)
		n.setPermission(types.PermissionDenied)
		return false
	}
	dev, ok := defaultInput(devices)
	if !ok {
		log.Printf("Permission probe: no input device")
		n.setPermission(types.PermissionDenied)
		return false
	}
	h, err := n.backend.Open(dev, 1, float64(n.sampleRate), n.frames, func([]float32) {})
	if err != nil {
		log.Printf("Permission probe: opening %s: %v", dev.Name, err)
		n.setPermission(types.PermissionDenied)
		return false
	}
	if err := h.Close(); err != nil {
		log.Printf("Permission probe: closing %s: %v", dev.Name, err)
	}
	n.setPermission(types.PermissionGranted)
	return true
}

func defaultInput(devices []Device) (Device, bool) {
	for _, d := range devices {
		if d.Default && d.InputChannels > 0 {
			return d, true
		}
	}
	for _, d := range devices {
		if d.InputChannels > 0 {
			return d, true
		}
	}
	return Device{}, false
}

// CaptureStream lists shareable devices, lets pick choose one and starts
// capturing from it. A second call while one is running fails with
// ErrCaptureInProgress without calling pick.
func (n *Negotiator) CaptureStream(ctx context.Context, pick PickFunc) (*Stream, error) {
	if !n.inflight.CompareAndSwap(false, true) {
		return nil, ErrCaptureInProgress
	}
	defer n.inflight.Store(false)

	devices, err := n.backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no devices", ErrUnavailable)
	}

	dev, err := pick(ctx, devices)
	switch {
	case errors.Is(err, ErrPermissionDenied):
		n.setPermission(types.PermissionDenied)
		return nil, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	case err != nil:
		return nil, err
	}
	if dev.InputChannels < 1 {
		return nil, fmt.Errorf("%s: %w", dev.Name, ErrNoAudioTrack)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	s := newStream(dev, n.sampleRate)
	h, err := n.backend.Open(dev, s.channels, float64(n.sampleRate), n.frames, s.push)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dev.Name, err)
	}
	if err := h.Start(); err != nil {
		h.Close()
		return nil, fmt.Errorf("starting %s: %w", dev.Name, err)
	}
	s.handle = h
	n.setPermission(types.PermissionGranted)
	log.Printf("Capturing from %s at %d Hz", dev, n.sampleRate)
	return s, nil
}
