package input

import (
	"context"
	"errors"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/dotmatrix/internal/capture"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/types"
)

// DeviceRequestMsg asks the user to pick a capture device.
type DeviceRequestMsg struct {
	Request *model.DeviceRequest
}

// CaptureResultMsg ends a capture negotiation.
type CaptureResultMsg struct {
	Stream *capture.Stream
	Info   *types.TrackInfo
	Err    error
}

// PermissionMsg reports a permission probe.
type PermissionMsg struct {
	Granted bool
}

// nowPlaying is swapped in tests.
var nowPlaying = capture.NowPlaying

// StartCapture negotiates a capture stream off the UI goroutine. The device
// picker is shown through DeviceRequestMsg when the negotiation asks for it.
func StartCapture(m *model.Model) tea.Cmd {
	if m.Capture == nil {
		m.NotifyError(capture.ErrUnavailable)
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	if !m.Capturing {
		m.Capturing = true
		m.CancelCapture = cancel
	}
	requests := make(chan *model.DeviceRequest)
	pick := model.Pick(requests, m.Config.CaptureDevice)
	negotiator := m.Capture

	run := func() tea.Msg {
		defer close(requests)
		defer cancel()
		stream, err := negotiator.CaptureStream(ctx, pick)
		if err != nil {
			return CaptureResultMsg{Err: err}
		}
		return CaptureResultMsg{Stream: stream, Info: nowPlaying(ctx)}
	}
	await := func() tea.Msg {
		req, ok := <-requests
		if !ok {
			return nil
		}
		return DeviceRequestMsg{Request: req}
	}
	return tea.Batch(run, await)
}

// HandleCaptureResult attaches a negotiated stream, or reports why there is
// none. A failed capture leaves the current source playing.
func HandleCaptureResult(m *model.Model, msg CaptureResultMsg) tea.Cmd {
	if errors.Is(msg.Err, capture.ErrCaptureInProgress) {
		m.NotifyError(msg.Err)
		return nil
	}
	m.Capturing = false
	m.CancelCapture = nil
	if m.DeviceRequest != nil {
		m.AnswerDevices(capture.ErrCancelled)
	}

	switch {
	case errors.Is(msg.Err, capture.ErrCancelled):
		m.Notify(types.StatusInfo, "Capture cancelled")
		return nil
	case msg.Err != nil:
		log.Printf("Capture failed: %v", msg.Err)
		m.NotifyError(msg.Err)
		return nil
	}

	if err := m.Session.AttachCapturedStream(msg.Stream, msg.Info); err != nil {
		m.NotifyError(err)
		return nil
	}
	m.ClearOverview()
	m.Notify(types.StatusSuccess, "Capturing from "+msg.Stream.Device().String())
	return m.Loop.Start()
}

// ProbePermission opens the default input once to surface the permission
// prompt.
func ProbePermission(m *model.Model) tea.Cmd {
	if m.Capture == nil {
		m.NotifyError(capture.ErrUnavailable)
		return nil
	}
	negotiator := m.Capture
	return func() tea.Msg {
		return PermissionMsg{Granted: negotiator.RequestPermission()}
	}
}

func HandlePermission(m *model.Model, msg PermissionMsg) {
	if msg.Granted {
		m.Notify(types.StatusSuccess, "Audio input access granted")
		return
	}
	m.NotifyError(capture.ErrPermissionDenied)
}

// CancelCapture abandons an in-flight negotiation, e.g. on quit.
func CancelCapture(m *model.Model) {
	if m.DeviceRequest != nil {
		m.AnswerDevices(capture.ErrCancelled)
	}
	if m.CancelCapture != nil {
		m.CancelCapture()
		m.CancelCapture = nil
	}
}
