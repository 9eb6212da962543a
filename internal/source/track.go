package source

import (
	"path/filepath"
	"strings"

	"github.com/schollz/dotmatrix/internal/types"
)

// ParseTrackInfo derives artist and title from a file name of the form
// "Artist - Title.ext". Without " - " the first "-" separates them; without
// any dash the whole stem is the title.
func ParseTrackInfo(name string) types.TrackInfo {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	artist, title, ok := strings.Cut(stem, " - ")
	if !ok {
		artist, title, ok = strings.Cut(stem, "-")
	}
	if !ok {
		return types.TrackInfo{Title: strings.TrimSpace(stem)}
	}
	return types.TrackInfo{
		Title:  strings.TrimSpace(title),
		Artist: strings.TrimSpace(artist),
	}
}
