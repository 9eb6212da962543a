package input

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/dotmatrix/internal/animation"
	"github.com/schollz/dotmatrix/internal/config"
	"github.com/schollz/dotmatrix/internal/midiconnector"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/player"
	"github.com/schollz/dotmatrix/internal/session"
	"github.com/schollz/dotmatrix/internal/types"
)

type fakeSession struct {
	state types.TransportState
	kind  types.SourceKind
	track types.TrackInfo
	path  string
	vol   float64
	muted bool
	pos   time.Duration
	dur   time.Duration

	toggleErr error
	attachErr error

	toggles  int
	forward  int
	backward int
	seeks    []time.Duration
	ended    int
	failures []error
	stream   session.CapturedStream
	info     *types.TrackInfo
	closed   bool
}

func newFakeSession() *fakeSession { return &fakeSession{vol: 1} }

func (f *fakeSession) AttachFile(path string) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.path = path
	f.kind = types.FileBacked
	f.state = types.Playing
	f.track = types.TrackInfo{Artist: "Artist", Title: "Title"}
	f.dur = time.Minute
	return nil
}

func (f *fakeSession) AttachCapturedStream(s session.CapturedStream, info *types.TrackInfo) error {
	f.stream, f.info = s, info
	f.kind = types.StreamBacked
	f.state = types.Playing
	return nil
}

func (f *fakeSession) TogglePlay() error {
	f.toggles++
	if f.toggleErr != nil {
		return f.toggleErr
	}
	if f.state == types.Playing {
		f.state = types.Paused
	} else {
		f.state = types.Playing
	}
	return nil
}

func (f *fakeSession) Pause()              { f.state = types.Paused }
func (f *fakeSession) SkipForward() error  { f.forward++; return nil }
func (f *fakeSession) SkipBackward() error { f.backward++; return nil }
func (f *fakeSession) SeekBy(d time.Duration) error {
	f.seeks = append(f.seeks, d)
	return nil
}
func (f *fakeSession) SetVolume(v float64) { f.vol = max(0, min(1, v)) }
func (f *fakeSession) ToggleMute()         { f.muted = !f.muted }
func (f *fakeSession) HandleEnded()        { f.ended++; f.state = types.Stopped }
func (f *fakeSession) HandleError(err error) error {
	f.failures = append(f.failures, err)
	f.state = types.Paused
	return err
}
func (f *fakeSession) Close()                      { f.closed = true }
func (f *fakeSession) State() types.TransportState { return f.state }
func (f *fakeSession) Kind() types.SourceKind      { return f.kind }
func (f *fakeSession) Track() types.TrackInfo      { return f.track }
func (f *fakeSession) FilePath() string            { return f.path }
func (f *fakeSession) Position() time.Duration     { return f.pos }
func (f *fakeSession) Duration() time.Duration     { return f.dur }
func (f *fakeSession) Volume() float64             { return f.vol }
func (f *fakeSession) Muted() bool                 { return f.muted }
func (f *fakeSession) Snapshot() []uint8 {
	if f.state != types.Playing {
		return nil
	}
	snap := make([]uint8, 128)
	for i := range snap {
		snap[i] = 255
	}
	return snap
}

func newTestModel(t *testing.T, capturer model.Capturer) (*model.Model, *fakeSession, chan player.Event) {
	t.Helper()
	cfg := config.Default()
	cfg.StartDir = t.TempDir()
	sess := newFakeSession()
	events := make(chan player.Event, 4)
	m := model.NewModel(cfg, sess, capturer, events)
	m.Resize(60, 30)
	return m, sess, events
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "shift+left":
		return tea.KeyMsg{Type: tea.KeyShiftLeft}
	case "shift+right":
		return tea.KeyMsg{Type: tea.KeyShiftRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTransportKeys(t *testing.T) {
	m, sess, _ := newTestModel(t, nil)

	HandleKeyInput(m, keyMsg(" "))
	assert.Equal(t, 1, sess.toggles)
	HandleKeyInput(m, keyMsg("right"))
	HandleKeyInput(m, keyMsg("left"))
	HandleKeyInput(m, keyMsg("left"))
	assert.Equal(t, 1, sess.forward)
	assert.Equal(t, 2, sess.backward)

	HandleKeyInput(m, keyMsg("shift+left"))
	HandleKeyInput(m, keyMsg("shift+right"))
	assert.Equal(t, []time.Duration{-time.Second, time.Second}, sess.seeks)

	HandleKeyInput(m, keyMsg("down"))
	assert.InDelta(t, 0.95, sess.vol, 1e-9)
	HandleKeyInput(m, keyMsg("up"))
	HandleKeyInput(m, keyMsg("up"))
	assert.InDelta(t, 1.0, sess.vol, 1e-9)

	HandleKeyInput(m, keyMsg("m"))
	assert.True(t, sess.muted)
}

func TestPlayWithoutSourceShowsHint(t *testing.T) {
	m, sess, _ := newTestModel(t, nil)
	sess.toggleErr = session.ErrNoSource

	HandleKeyInput(m, keyMsg(" "))
	toast, ok := m.LatestToast()
	require.True(t, ok)
	assert.Equal(t, types.StatusInfo, toast.Level)
	assert.Contains(t, toast.Text, "Open a file")
}

func TestViewSwitchingKeys(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	HandleKeyInput(m, keyMsg("?"))
	assert.Equal(t, types.HelpView, m.ViewMode)
	HandleKeyInput(m, keyMsg("x"))
	assert.Equal(t, types.PlayerView, m.ViewMode, "any key leaves help")

	cmd := HandleKeyInput(m, keyMsg("o"))
	assert.Equal(t, types.FileView, m.ViewMode)
	assert.NotNil(t, cmd, "file browser reads the directory")
	HandleKeyInput(m, keyMsg("esc"))
	assert.Equal(t, types.PlayerView, m.ViewMode)
}

func TestQuitStopsLoop(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		m, _, _ := newTestModel(t, nil)
		m.Loop.Start()
		cmd := HandleKeyInput(m, keyMsg(k))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.False(t, m.Loop.Running())
	}
}

func TestAttachPath(t *testing.T) {
	orig := loadWaveform
	loadWaveform = func(string) (model.PeaksFunc, error) { return nil, errors.New("no waveform") }
	t.Cleanup(func() { loadWaveform = orig })

	m, sess, _ := newTestModel(t, nil)
	cmd := AttachPath(m, "/music/Artist - Title.wav")
	require.NotNil(t, cmd)
	assert.True(t, m.Loop.Running())
	assert.Equal(t, "/music/Artist - Title.wav", sess.path)
	assert.True(t, m.Overview.Loading)
	toast, _ := m.LatestToast()
	assert.Equal(t, "Playing Artist - Title", toast.Text)

	sess.attachErr = errors.New("decoding bad.wav: broken")
	assert.Nil(t, AttachPath(m, "bad.wav"))
	toast, _ = m.LatestToast()
	assert.Equal(t, types.StatusError, toast.Level)
	assert.Equal(t, "/music/Artist - Title.wav", sess.path, "current source kept")
}

func TestOverviewMessages(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	m.ResetOverview("a.wav", 10*time.Second, nil)

	peaks := func(start, end float64, width int) ([]float64, error) { return make([]float64, 2*width), nil }
	HandleOverview(m, OverviewMsg{Path: "old.wav", Duration: time.Second, Peaks: peaks})
	assert.False(t, m.Overview.Ready(), "stale load ignored")

	HandleOverview(m, OverviewMsg{Path: "a.wav", Err: errors.New("nope")})
	assert.False(t, m.Overview.Loading)
	assert.False(t, m.Overview.Ready())

	HandleOverview(m, OverviewMsg{Path: "a.wav", Duration: 10 * time.Second, Peaks: peaks})
	assert.True(t, m.Overview.Ready())
}

func TestLoadOverviewCommand(t *testing.T) {
	orig := loadWaveform
	loadWaveform = func(path string) (model.PeaksFunc, error) {
		return func(float64, float64, int) ([]float64, error) { return nil, nil }, nil
	}
	t.Cleanup(func() { loadWaveform = orig })

	msg := LoadOverview("x.wav", 3*time.Second)().(OverviewMsg)
	assert.Equal(t, "x.wav", msg.Path)
	assert.Equal(t, 3*time.Second, msg.Duration)
	assert.NoError(t, msg.Err)
	assert.NotNil(t, msg.Peaks)
}

func TestDrainEvents(t *testing.T) {
	m, sess, events := newTestModel(t, nil)
	sess.state = types.Playing
	events <- player.Event{Kind: player.EventEnded}
	events <- player.Event{Kind: player.EventError, Err: errors.New("device lost")}

	DrainEvents(m)
	assert.Equal(t, 1, sess.ended)
	require.Len(t, sess.failures, 1)
	toast, _ := m.LatestToast()
	assert.Equal(t, "device lost", toast.Text)
	assert.Empty(t, events)
}

func TestAdvanceFrame(t *testing.T) {
	m, sess, _ := newTestModel(t, nil)
	first := m.Loop.Start()
	stale := first().(animation.FrameMsg)
	m.Loop.Start()
	assert.Nil(t, AdvanceFrame(m, stale), "stale ticks are dropped")

	live := animation.FrameMsg{Gen: m.Loop.Generation()}
	sess.state = types.Playing
	next := AdvanceFrame(m, live)
	assert.NotNil(t, next)
	assert.True(t, m.Frame.Active)
	assert.Equal(t, m.Frame.Geometry.Cells(), m.Frame.LitCount())

	sess.state = types.Paused
	AdvanceFrame(m, live)
	assert.False(t, m.Frame.Active)
	assert.Zero(t, m.Frame.LitCount())
}

func TestApplyRemote(t *testing.T) {
	m, sess, _ := newTestModel(t, nil)
	ApplyRemote(m, midiconnector.Command{Action: midiconnector.ActionTogglePlay})
	ApplyRemote(m, midiconnector.Command{Action: midiconnector.ActionSkipForward})
	ApplyRemote(m, midiconnector.Command{Action: midiconnector.ActionSkipBackward})
	HandleMsg(m, RemoteMsg{Command: midiconnector.Command{Action: midiconnector.ActionVolume, Value: 0.5}})
	assert.Equal(t, 1, sess.toggles)
	assert.Equal(t, 1, sess.forward)
	assert.Equal(t, 1, sess.backward)
	assert.Equal(t, 0.5, sess.vol)
}
