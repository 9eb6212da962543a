package capture

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/schollz/dotmatrix/internal/types"
)

const nowPlayingTimeout = time.Second

// runPlayerctl is swapped out in tests.
var runPlayerctl = func(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "playerctl", "metadata", "--format", "{{artist}}\t{{title}}").Output()
}

// NowPlaying asks the desktop media session (MPRIS, through playerctl) what
// is playing. It returns nil when nothing is known.
func NowPlaying(ctx context.Context) *types.TrackInfo {
	ctx, cancel := context.WithTimeout(ctx, nowPlayingTimeout)
	defer cancel()
	out, err := runPlayerctl(ctx)
	if err != nil {
		return nil
	}
	return parseNowPlaying(string(out))
}

func parseNowPlaying(out string) *types.TrackInfo {
	line, _, _ := strings.Cut(strings.TrimRight(out, "\r\n"), "\n")
	artist, title, _ := strings.Cut(line, "\t")
	info := types.TrackInfo{
		Title:  strings.TrimSpace(title),
		Artist: strings.TrimSpace(artist),
	}
	if info.Title == "" {
		return nil
	}
	return &info
}
