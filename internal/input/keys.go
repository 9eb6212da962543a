package input

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the player view key layout.
type KeyMap struct {
	PlayPause    key.Binding
	SkipBack     key.Binding
	SkipForward  key.Binding
	NudgeBack    key.Binding
	NudgeForward key.Binding
	VolumeUp     key.Binding
	VolumeDown   key.Binding
	Mute         key.Binding
	Open         key.Binding
	Capture      key.Binding
	Permission   key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var Keys = KeyMap{
	PlayPause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
	SkipBack:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
	SkipForward:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
	NudgeBack:    key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("shift+←", "-1s")),
	NudgeForward: key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("shift+→", "+1s")),
	VolumeUp:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "volume up")),
	VolumeDown:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "volume down")),
	Mute:         key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
	Open:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
	Capture:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "capture")),
	Permission:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "mic access")),
	ZoomIn:       key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom in")),
	ZoomOut:      key.NewBinding(key.WithKeys("Z"), key.WithHelp("Z", "zoom out")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.SkipForward, k.VolumeUp, k.Open, k.Capture, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.SkipBack, k.SkipForward, k.NudgeBack, k.NudgeForward},
		{k.VolumeUp, k.VolumeDown, k.Mute, k.ZoomIn, k.ZoomOut},
		{k.Open, k.Capture, k.Permission, k.Help, k.Quit},
	}
}

