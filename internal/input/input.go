package input

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/dotmatrix/internal/capture"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/source"
	"github.com/schollz/dotmatrix/internal/types"
)

// HandleKeyInput routes a key press to the active view.
func HandleKeyInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return quit(m)
	}
	switch m.ViewMode {
	case types.FileView:
		return handleFileInput(m, msg)
	case types.DeviceView:
		return handleDeviceInput(m, msg)
	case types.HelpView:
		m.Back()
		return nil
	}
	return handlePlayerInput(m, msg)
}

func handlePlayerInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, Keys.Quit):
		return quit(m)
	case key.Matches(msg, Keys.PlayPause):
		return TogglePlayback(m)
	case key.Matches(msg, Keys.SkipBack):
		Skip(m, false)
	case key.Matches(msg, Keys.SkipForward):
		Skip(m, true)
	case key.Matches(msg, Keys.NudgeBack):
		Nudge(m, -NudgeStep)
	case key.Matches(msg, Keys.NudgeForward):
		Nudge(m, NudgeStep)
	case key.Matches(msg, Keys.VolumeUp):
		ChangeVolume(m, VolumeStep)
	case key.Matches(msg, Keys.VolumeDown):
		ChangeVolume(m, -VolumeStep)
	case key.Matches(msg, Keys.Mute):
		m.Session.ToggleMute()
	case key.Matches(msg, Keys.ZoomIn):
		m.ZoomOverview(true)
	case key.Matches(msg, Keys.ZoomOut):
		m.ZoomOverview(false)
	case key.Matches(msg, Keys.Open):
		m.SwitchView(types.FileView)
		return m.FilePicker.Init()
	case key.Matches(msg, Keys.Capture):
		return StartCapture(m)
	case key.Matches(msg, Keys.Permission):
		return ProbePermission(m)
	case key.Matches(msg, Keys.Help):
		m.SwitchView(types.HelpView)
	}
	return nil
}

func handleFileInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		m.Back()
		return nil
	}
	var cmd tea.Cmd
	m.FilePicker, cmd = m.FilePicker.Update(msg)
	if ok, path := m.FilePicker.DidSelectFile(msg); ok {
		m.Back()
		return tea.Batch(cmd, AttachPath(m, path))
	}
	if ok, path := m.FilePicker.DidSelectDisabledFile(msg); ok {
		m.NotifyError(fmt.Errorf("%s: %w", filepath.Base(path), unsupportedErr(path)))
	}
	return cmd
}

func unsupportedErr(path string) error {
	if source.IsAudio(path) {
		return source.ErrUnsupported
	}
	return source.ErrNotAudio
}

func handleDeviceInput(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.AnswerDevices(nil)
		return nil
	case "esc", "q":
		m.AnswerDevices(capture.ErrCancelled)
		return nil
	case "d":
		m.AnswerDevices(capture.ErrPermissionDenied)
		return nil
	}
	var cmd tea.Cmd
	m.Devices, cmd = m.Devices.Update(msg)
	return cmd
}

func quit(m *model.Model) tea.Cmd {
	CancelCapture(m)
	m.Loop.Stop()
	return tea.Quit
}

// HandleMsg handles everything but keys, frames and window sizes. Unknown
// messages go to the file browser, which loads directories asynchronously.
func HandleMsg(m *model.Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case RemoteMsg:
		return ApplyRemote(m, msg.Command)
	case DeviceRequestMsg:
		m.ShowDevices(msg.Request)
		return nil
	case CaptureResultMsg:
		return HandleCaptureResult(m, msg)
	case PermissionMsg:
		HandlePermission(m, msg)
		return nil
	case OverviewMsg:
		HandleOverview(m, msg)
		return nil
	}
	var cmd tea.Cmd
	m.FilePicker, cmd = m.FilePicker.Update(msg)
	return cmd
}

// filePickerMargin is what the file picker subtracts from the window height
// it is sent.
const filePickerMargin = 5

// Resize applies a terminal resize to the model and its sub-components.
func Resize(m *model.Model, msg tea.WindowSizeMsg) tea.Cmd {
	m.Resize(msg.Width, msg.Height)
	width := max(msg.Width-2*model.PaddingX, 1)
	m.Devices.SetSize(width, m.ContentLines())
	var cmd tea.Cmd
	m.FilePicker, cmd = m.FilePicker.Update(tea.WindowSizeMsg{
		Width:  width,
		Height: m.ContentLines() + filePickerMargin,
	})
	return cmd
}
