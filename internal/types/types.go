package types

// TransportState is the playback machine's current mode.
type TransportState int

const (
	Stopped TransportState = iota
	Playing
	Paused
)

func (s TransportState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// SourceKind identifies what is feeding the playback element.
type SourceKind int

const (
	NoSource SourceKind = iota
	FileBacked
	StreamBacked
)

func (k SourceKind) String() string {
	switch k {
	case FileBacked:
		return "file"
	case StreamBacked:
		return "stream"
	default:
		return "none"
	}
}

// TrackInfo is the now-playing title and artist.
type TrackInfo struct {
	Title  string
	Artist string
}

// IsZero reports whether neither field is set.
func (t TrackInfo) IsZero() bool {
	return t.Title == "" && t.Artist == ""
}

// Defaults used when a captured stream has no external metadata.
const (
	CapturedTitle  = "Background Audio"
	CapturedArtist = "System"
)

// PermissionState mirrors the capture permission query results.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionPrompt
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionPrompt:
		return "prompt"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

type ViewMode int

const (
	PlayerView ViewMode = iota
	FileView
	DeviceView
	HelpView
)

// StatusLevel classifies toast notifications.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusError
)
