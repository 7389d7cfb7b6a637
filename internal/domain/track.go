package domain

import (
	"strings"
	"time"
)

// Track is one playlist entry as returned by the track source. Entries with
// an empty ID are kept in queues (positions stay stable for clients) but are
// skipped at dispatch time.
type Track struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DurationSec  int    `json:"duration_sec,omitempty"`
}

// Label renders the human-readable "artist - title" form used for cast
// metadata and M3U entries.
func (t Track) Label() string {
	label := strings.Trim(t.Artist+" - "+t.Title, " -")
	if label == "" {
		return t.ID
	}
	return label
}

// TrackMedia is resolved stream metadata for a single track.
type TrackMedia struct {
	TrackID      string
	StreamURL    string
	MimeType     string
	Title        string
	Artist       string
	ThumbnailURL string
	ResolvedAt   time.Time
}

// DefaultMimeType is assumed whenever extraction does not report one.
const DefaultMimeType = "audio/mp4"

// PlaybackHints carry caller-supplied metadata used when resolution fails.
type PlaybackHints struct {
	Title        string
	Artist       string
	ThumbnailURL string
}

// QueueInfo is a point-in-time snapshot of one device queue.
type QueueInfo struct {
	TargetID     string       `json:"target_id"`
	TotalTracks  int          `json:"total_tracks"`
	Position     int          `json:"position"`
	Mode         PlaybackMode `json:"mode"`
	Active       bool         `json:"active"`
	CurrentTrack *Track       `json:"current_track,omitempty"`
}
