package model

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"

	"github.com/schollz/dotmatrix/internal/animation"
	"github.com/schollz/dotmatrix/internal/capture"
	"github.com/schollz/dotmatrix/internal/config"
	"github.com/schollz/dotmatrix/internal/grid"
	"github.com/schollz/dotmatrix/internal/player"
	"github.com/schollz/dotmatrix/internal/session"
	"github.com/schollz/dotmatrix/internal/source"
	"github.com/schollz/dotmatrix/internal/types"
)

// Layout of the player view in terminal lines, outside the dot matrix.
const (
	PaddingX      = 2
	PaddingY      = 1
	HeaderLines   = 2
	OverviewLines = 2
	// track info, progress, transport, help, toast
	FooterLines = 5
	ChromeLines = 2*PaddingY + HeaderLines + OverviewLines + FooterLines
)

// Transport is the playback session surface the UI drives.
type Transport interface {
	AttachFile(path string) error
	AttachCapturedStream(stream session.CapturedStream, info *types.TrackInfo) error
	TogglePlay() error
	Pause()
	SkipForward() error
	SkipBackward() error
	SeekBy(delta time.Duration) error
	SetVolume(v float64)
	ToggleMute()
	HandleEnded()
	HandleError(err error) error
	Close()

	State() types.TransportState
	Kind() types.SourceKind
	Track() types.TrackInfo
	FilePath() string
	Position() time.Duration
	Duration() time.Duration
	Volume() float64
	Muted() bool
	Snapshot() []uint8
}

// Capturer negotiates live capture.
type Capturer interface {
	CheckPermission() types.PermissionState
	RequestPermission() bool
	CaptureStream(ctx context.Context, pick capture.PickFunc) (*capture.Stream, error)
}

type Toast struct {
	Level   types.StatusLevel
	Text    string
	Expires time.Time
}

type Model struct {
	Config     config.Config
	Session    Transport
	Capture    Capturer
	Events     <-chan player.Event
	Visualizer *grid.Visualizer
	Loop       *animation.Loop
	Now        func() time.Time

	// View state
	ViewMode     types.ViewMode
	PreviousView types.ViewMode
	TermWidth    int
	TermHeight   int
	Frame        grid.Frame

	Toasts []Toast

	// File browser
	FilePicker filepicker.Model

	// Capture device picker
	Devices       list.Model
	DeviceRequest *DeviceRequest
	Capturing     bool
	CancelCapture context.CancelFunc

	// Remote controller name, empty when none
	Remote string

	Overview Overview
}

func NewModel(cfg config.Config, sess Transport, capturer Capturer, events <-chan player.Event) *Model {
	fp := filepicker.New()
	fp.CurrentDirectory = cfg.StartDir
	fp.AllowedTypes = source.Extensions()
	fp.AutoHeight = true

	m := &Model{
		Config:     cfg,
		Session:    sess,
		Capture:    capturer,
		Events:     events,
		Loop:       animation.New(cfg.FPS),
		Now:        time.Now,
		ViewMode:   types.PlayerView,
		FilePicker: fp,
		Devices:    newDeviceList(),
	}
	m.Visualizer = grid.NewVisualizer(m.Surface())
	m.Frame = m.Visualizer.Last()
	return m
}

// MatrixCells is the dot matrix size in terminal cells.
func (m *Model) MatrixCells() (cols, rows int) {
	cols = max(m.TermWidth-2*PaddingX, 1)
	rows = max(m.TermHeight-ChromeLines, 1)
	return cols, rows
}

// ContentLines is the height left between header and footer.
func (m *Model) ContentLines() int {
	return max(m.TermHeight-2*PaddingY-HeaderLines-FooterLines, 1)
}

// Surface is the matrix area in logical pixels.
func (m *Model) Surface() grid.Surface {
	cols, rows := m.MatrixCells()
	return grid.Surface{
		Width:      float64(cols) * m.Config.CellWidth,
		Height:     float64(rows) * m.Config.CellHeight,
		PixelRatio: m.Config.PixelRatio(),
	}
}

// Resize records the terminal size and resizes the visualizer. The new
// geometry is used from the next frame on.
func (m *Model) Resize(width, height int) bool {
	m.TermWidth, m.TermHeight = width, height
	return m.Visualizer.Resize(m.Surface())
}

// Notify shows a toast until ToastAfter has passed.
func (m *Model) Notify(level types.StatusLevel, text string) {
	m.Toasts = append(m.Toasts, Toast{Level: level, Text: text, Expires: m.Now().Add(m.Config.ToastAfter)})
}

func (m *Model) NotifyError(err error) {
	m.Notify(types.StatusError, err.Error())
}

// PruneToasts drops expired toasts.
func (m *Model) PruneToasts() {
	now := m.Now()
	kept := m.Toasts[:0]
	for _, t := range m.Toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	m.Toasts = kept
}

// LatestToast returns the most recent live toast.
func (m *Model) LatestToast() (Toast, bool) {
	m.PruneToasts()
	if len(m.Toasts) == 0 {
		return Toast{}, false
	}
	return m.Toasts[len(m.Toasts)-1], true
}

// SwitchView moves to mode, remembering where we came from.
func (m *Model) SwitchView(mode types.ViewMode) {
	if m.ViewMode == mode {
		return
	}
	m.PreviousView = m.ViewMode
	m.ViewMode = mode
}

func (m *Model) Back() {
	m.ViewMode, m.PreviousView = m.PreviousView, types.PlayerView
}

// Playing reports whether the visualizer should show live data.
func (m *Model) Playing() bool {
	return m.Session.State() == types.Playing
}
