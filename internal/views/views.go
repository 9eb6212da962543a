package views

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/dotmatrix/internal/input"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/types"
)

// Common styles used across all views
type ViewStyles struct {
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Label     lipgloss.Style
	Container lipgloss.Style
	Playback  lipgloss.Style
	Title     lipgloss.Style
	Rule      lipgloss.Style
	Success   lipgloss.Style
	Info      lipgloss.Style
	Error     lipgloss.Style
}

// getCommonStyles returns the standard style definitions used across views
func getCommonStyles() *ViewStyles {
	return &ViewStyles{
		Selected:  lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0")),
		Normal:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Container: lipgloss.NewStyle().Padding(model.PaddingY, model.PaddingX),
		Playback:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Rule:      lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Render draws the active view.
func Render(m *model.Model) string {
	switch m.ViewMode {
	case types.FileView:
		return RenderFileView(m)
	case types.DeviceView:
		return RenderDeviceView(m)
	case types.HelpView:
		return RenderHelpView(m)
	}
	return RenderPlayerView(m)
}

// renderViewWithCommonPattern provides a common structure for rendering views
func renderViewWithCommonPattern(m *model.Model, leftHeader, rightHeader string, renderContent func(styles *ViewStyles) string, helpText string, contentLines int) string {
	styles := getCommonStyles()

	var content strings.Builder
	content.WriteString(RenderHeader(m, leftHeader, rightHeader))
	content.WriteString(renderContent(styles))
	content.WriteString(RenderFooter(m, contentLines, helpText))

	return styles.Container.Render(content.String())
}

func innerWidth(m *model.Model) int {
	return max(m.TermWidth-2*model.PaddingX, 1)
}

// RenderHeader renders the title line with leftContent and rightContent
// pushed to opposite edges, then a rule.
func RenderHeader(m *model.Model, leftContent, rightContent string) string {
	styles := getCommonStyles()
	width := innerWidth(m)

	left := styles.Title.Render("dotmatrix")
	if leftContent != "" {
		left += " " + leftContent
	}
	paddingSize := width - lipgloss.Width(left) - lipgloss.Width(rightContent)
	if paddingSize < 1 {
		paddingSize = 1
	}

	var content strings.Builder
	content.WriteString(left)
	if rightContent != "" {
		content.WriteString(strings.Repeat(" ", paddingSize))
		content.WriteString(rightContent)
	}
	content.WriteString("\n")
	content.WriteString(styles.Rule.Render(strings.Repeat("─", width)))
	content.WriteString("\n")
	return content.String()
}

// RenderFooter fills the lines the content left empty, then adds the track,
// position, transport, help and toast lines. An empty helpText shows the
// short key help.
func RenderFooter(m *model.Model, contentLines int, helpText string) string {
	styles := getCommonStyles()
	width := innerWidth(m)
	var content strings.Builder

	maxContentLines := m.ContentLines()
	if m.TermHeight > 0 && contentLines < maxContentLines {
		for i := contentLines; i < maxContentLines; i++ {
			content.WriteString("\n")
		}
	}

	content.WriteString(renderTrackLine(m, styles))
	content.WriteString("\n")
	content.WriteString(renderPositionLine(m, styles, width))
	content.WriteString("\n")
	content.WriteString(renderTransportLine(m, styles))
	content.WriteString("\n")
	if helpText == "" {
		h := help.New()
		h.Width = width
		helpText = h.ShortHelpView(input.Keys.ShortHelp())
	} else {
		helpText = styles.Label.Render(helpText)
	}
	content.WriteString(helpText)
	content.WriteString("\n")
	content.WriteString(renderToast(m, styles))

	return content.String()
}

func stateIndicator(m *model.Model, styles *ViewStyles) string {
	switch m.Session.State() {
	case types.Playing:
		return styles.Playback.Render("▶ playing")
	case types.Paused:
		return styles.Normal.Render("❚❚ paused")
	}
	return styles.Label.Render("■ stopped")
}

func renderTrackLine(m *model.Model, styles *ViewStyles) string {
	switch m.Session.Kind() {
	case types.NoSource:
		return styles.Label.Render("Nothing playing. Open a file (o) or capture audio (c).")
	case types.StreamBacked:
		return styles.Normal.Render(input.TrackLabel(m.Session.Track(), "Live audio")) + styles.Label.Render("  live")
	}
	return styles.Normal.Render(input.TrackLabel(m.Session.Track(), filepath.Base(m.Session.FilePath())))
}

func renderPositionLine(m *model.Model, styles *ViewStyles, width int) string {
	pos := m.Session.Position()
	switch m.Session.Kind() {
	case types.NoSource:
		return ""
	case types.StreamBacked:
		return styles.Error.Render("●") + styles.Label.Render(" "+formatDuration(pos))
	}

	dur := m.Session.Duration()
	times := fmt.Sprintf(" %s / %s", formatDuration(pos), formatDuration(dur))
	barWidth := width - lipgloss.Width(times)
	if barWidth < 1 {
		return styles.Label.Render(times)
	}
	percent := 0.0
	if dur > 0 {
		percent = min(max(pos.Seconds()/dur.Seconds(), 0), 1)
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(barWidth))
	return bar.ViewAs(percent) + styles.Label.Render(times)
}

func renderTransportLine(m *model.Model, styles *ViewStyles) string {
	parts := []string{stateIndicator(m, styles)}
	if m.Session.Muted() {
		parts = append(parts, styles.Error.Render("muted"))
	} else {
		parts = append(parts, styles.Normal.Render(fmt.Sprintf("vol %d%%", int(m.Session.Volume()*100+0.5))))
	}
	if m.Capture != nil {
		perm := m.Capture.CheckPermission()
		style := styles.Label
		if perm == types.PermissionDenied {
			style = styles.Error
		}
		parts = append(parts, style.Render("input "+perm.String()))
	}
	if m.Capturing {
		parts = append(parts, styles.Info.Render("negotiating capture"))
	}
	if o := &m.Overview; o.Ready() && o.End-o.Start < o.Duration {
		parts = append(parts, styles.Label.Render(fmt.Sprintf("zoom %s-%s",
			formatDuration(seconds(o.Start)), formatDuration(seconds(o.End)))))
	}
	return strings.Join(parts, styles.Label.Render(" · "))
}

func renderToast(m *model.Model, styles *ViewStyles) string {
	t, ok := m.LatestToast()
	if !ok {
		return ""
	}
	switch t.Level {
	case types.StatusSuccess:
		return styles.Success.Render(t.Text)
	case types.StatusError:
		return styles.Error.Render(t.Text)
	}
	return styles.Info.Render(t.Text)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// formatDuration prints m:ss, or h:mm:ss from an hour on.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, mins, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%d:%02d", mins, s)
}
