package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/dotmatrix/internal/capture"
	"github.com/schollz/dotmatrix/internal/types"
)

type deviceItem struct {
	dev capture.Device
}

func (i deviceItem) Title() string {
	if i.dev.Default {
		return i.dev.Name + " (default)"
	}
	return i.dev.Name
}

func (i deviceItem) Description() string {
	if i.dev.InputChannels == 0 {
		return i.dev.HostAPI + " · output only"
	}
	return fmt.Sprintf("%s · %d in · %.0f Hz", i.dev.HostAPI, i.dev.InputChannels, i.dev.DefaultSampleRate)
}

func (i deviceItem) FilterValue() string { return i.dev.Name }

func newDeviceList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("14")).
		BorderLeftForeground(lipgloss.Color("14"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("6")).
		BorderLeftForeground(lipgloss.Color("14"))

	l := list.New(nil, delegate, 48, 12)
	l.Title = "Share audio from"
	l.Styles.Title = l.Styles.Title.UnsetBackground().Padding(0, 0)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

type deviceAnswer struct {
	dev capture.Device
	err error
}

// DeviceRequest is a capture negotiation waiting for the user to pick a
// device. It is answered at most once.
type DeviceRequest struct {
	Devices []capture.Device
	reply   chan deviceAnswer
	once    sync.Once
}

func NewDeviceRequest(devices []capture.Device) *DeviceRequest {
	return &DeviceRequest{Devices: devices, reply: make(chan deviceAnswer, 1)}
}

func (r *DeviceRequest) Choose(dev capture.Device) {
	r.once.Do(func() { r.reply <- deviceAnswer{dev: dev} })
}

// Cancel answers with err, typically capture.ErrCancelled or
// capture.ErrPermissionDenied.
func (r *DeviceRequest) Cancel(err error) {
	r.once.Do(func() { r.reply <- deviceAnswer{err: err} })
}

func (r *DeviceRequest) Wait(ctx context.Context) (capture.Device, error) {
	select {
	case a := <-r.reply:
		return a.dev, a.err
	case <-ctx.Done():
		return capture.Device{}, ctx.Err()
	}
}

// Pick hands each negotiation to requests and waits for the user. A device
// whose name contains preferred (case insensitive) is taken without asking.
func Pick(requests chan<- *DeviceRequest, preferred string) capture.PickFunc {
	return func(ctx context.Context, devices []capture.Device) (capture.Device, error) {
		if preferred != "" {
			for _, d := range devices {
				if d.InputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(preferred)) {
					return d, nil
				}
			}
		}
		req := NewDeviceRequest(devices)
		select {
		case requests <- req:
		case <-ctx.Done():
			return capture.Device{}, ctx.Err()
		}
		return req.Wait(ctx)
	}
}

// ShowDevices opens the device picker for req, preselecting the default
// input.
func (m *Model) ShowDevices(req *DeviceRequest) {
	m.DeviceRequest = req
	items := make([]list.Item, len(req.Devices))
	sel := 0
	for i, d := range req.Devices {
		items[i] = deviceItem{dev: d}
		if d.Default && d.InputChannels > 0 {
			sel = i
		}
	}
	m.Devices.SetItems(items)
	m.Devices.Select(sel)
	m.SwitchView(types.DeviceView)
}

func (m *Model) SelectedDevice() (capture.Device, bool) {
	it, ok := m.Devices.SelectedItem().(deviceItem)
	if !ok {
		return capture.Device{}, false
	}
	return it.dev, true
}

// AnswerDevices closes the picker. With err nil the highlighted device is
// chosen.
func (m *Model) AnswerDevices(err error) {
	req := m.DeviceRequest
	if req == nil {
		return
	}
	m.DeviceRequest = nil
	if err != nil {
		req.Cancel(err)
	} else if dev, ok := m.SelectedDevice(); ok {
		req.Choose(dev)
	} else {
		req.Cancel(capture.ErrCancelled)
	}
	if m.ViewMode == types.DeviceView {
		m.Back()
	}
}
