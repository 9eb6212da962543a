package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/dotmatrix/internal/input"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/source"
)

func RenderFileView(m *model.Model) string {
	styles := getCommonStyles()
	header := styles.Normal.Render(fmt.Sprintf("Open: %s", m.FilePicker.CurrentDirectory))
	body := m.FilePicker.View()

	return renderViewWithCommonPattern(m, header, "", func(styles *ViewStyles) string {
		return body + "\n"
	}, fmt.Sprintf("enter: open | esc: back | plays %s", strings.Join(source.Extensions(), " ")), lipgloss.Height(body))
}

func RenderDeviceView(m *model.Model) string {
	styles := getCommonStyles()
	right := ""
	if m.DeviceRequest != nil {
		right = styles.Label.Render(fmt.Sprintf("%d devices", len(m.DeviceRequest.Devices)))
	}
	body := m.Devices.View()

	return renderViewWithCommonPattern(m, styles.Normal.Render("Capture"), right, func(styles *ViewStyles) string {
		return body + "\n"
	}, "enter: share | d: deny access | esc: cancel", lipgloss.Height(body))
}

func RenderHelpView(m *model.Model) string {
	h := help.New()
	h.ShowAll = true
	h.Width = innerWidth(m)
	body := h.View(input.Keys)

	return renderViewWithCommonPattern(m, getCommonStyles().Normal.Render("Keys"), "", func(styles *ViewStyles) string {
		return body + "\n"
	}, "any key: back", lipgloss.Height(body))
}
