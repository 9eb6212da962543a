package input

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/dotmatrix/internal/animation"
	"github.com/schollz/dotmatrix/internal/midiconnector"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/player"
	"github.com/schollz/dotmatrix/internal/session"
	"github.com/schollz/dotmatrix/internal/types"
)

const (
	NudgeStep  = time.Second
	VolumeStep = 0.05
)

// RemoteMsg carries a command from the MIDI controller.
type RemoteMsg struct {
	Command midiconnector.Command
}

// TogglePlayback plays or pauses the current source.
func TogglePlayback(m *model.Model) tea.Cmd {
	if err := m.Session.TogglePlay(); err != nil {
		report(m, err)
	}
	return nil
}

func Skip(m *model.Model, forward bool) {
	var err error
	if forward {
		err = m.Session.SkipForward()
	} else {
		err = m.Session.SkipBackward()
	}
	if err != nil {
		report(m, err)
	}
}

func Nudge(m *model.Model, delta time.Duration) {
	if err := m.Session.SeekBy(delta); err != nil {
		report(m, err)
	}
}

func ChangeVolume(m *model.Model, delta float64) {
	m.Session.SetVolume(m.Session.Volume() + delta)
}

// ApplyRemote runs a controller command like the matching key.
func ApplyRemote(m *model.Model, cmd midiconnector.Command) tea.Cmd {
	switch cmd.Action {
	case midiconnector.ActionTogglePlay:
		return TogglePlayback(m)
	case midiconnector.ActionSkipBackward:
		Skip(m, false)
	case midiconnector.ActionSkipForward:
		Skip(m, true)
	case midiconnector.ActionVolume:
		m.Session.SetVolume(cmd.Value)
	}
	return nil
}

// AttachPath plays the file at path. On failure the current source keeps
// playing and the error is shown.
func AttachPath(m *model.Model, path string) tea.Cmd {
	if err := m.Session.AttachFile(path); err != nil {
		log.Printf("Error opening %s: %v", path, err)
		m.NotifyError(err)
		return nil
	}
	m.Notify(types.StatusSuccess, "Playing "+TrackLabel(m.Session.Track(), filepath.Base(path)))
	dur := m.Session.Duration()
	m.ResetOverview(path, dur, nil)
	return tea.Batch(m.Loop.Start(), LoadOverview(path, dur))
}

// DrainEvents applies playback events queued by the audio goroutine.
func DrainEvents(m *model.Model) {
	if m.Events == nil {
		return
	}
	for {
		select {
		case e := <-m.Events:
			switch e.Kind {
			case player.EventEnded:
				m.Session.HandleEnded()
				m.Notify(types.StatusInfo, "Finished")
			case player.EventError:
				m.NotifyError(m.Session.HandleError(e.Err))
			}
		default:
			return
		}
	}
}

// AdvanceFrame draws one animation frame and schedules the next. Ticks from
// a stale loop generation are dropped.
func AdvanceFrame(m *model.Model, msg animation.FrameMsg) tea.Cmd {
	if !m.Loop.Accept(msg) {
		return nil
	}
	DrainEvents(m)
	if m.Session.Kind() == types.FileBacked {
		m.FollowPlayhead(m.Session.Position().Seconds())
	}
	m.Frame = m.Visualizer.Draw(m.Session.Snapshot(), m.Playing())
	m.PruneToasts()
	return m.Loop.Next()
}

func report(m *model.Model, err error) {
	if errors.Is(err, session.ErrNoSource) {
		m.Notify(types.StatusInfo, "Open a file (o) or capture audio (c) first")
		return
	}
	m.NotifyError(err)
}

// TrackLabel formats t as "Artist - Title", falling back when the title is
// unknown.
func TrackLabel(t types.TrackInfo, fallback string) string {
	switch {
	case t.Title != "" && t.Artist != "":
		return fmt.Sprintf("%s - %s", t.Artist, t.Title)
	case t.Title != "":
		return t.Title
	}
	return fallback
}
