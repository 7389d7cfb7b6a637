package adapters

import (
	"context"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

// Scanner discovers cast devices on the local network.
type Scanner interface {
	Scan(ctx context.Context) ([]domain.Device, error)
}

// CastConn is an open control channel to a single cast device.
type CastConn interface {
	// LoadApp launches a first-party receiver app with the given content id.
	LoadApp(appID, contentID string) error
	// LoadMedia pushes a media URL to the default receiver.
	LoadMedia(mediaURL, contentType, title, thumbnailURL string) error
	PlayerState() (domain.PlayerState, error)
	Stop() error
	Close() error
}

// Connector opens control channels to devices.
type Connector interface {
	Connect(ctx context.Context, device domain.Device) (CastConn, error)
}

// Extractor resolves a video id to stream metadata.
type Extractor interface {
	Extract(ctx context.Context, videoID string) (domain.TrackMedia, error)
}

// PlaylistLister fetches the flat item list of a playlist.
type PlaylistLister interface {
	PlaylistItems(ctx context.Context, listID string) ([]domain.Track, error)
}
