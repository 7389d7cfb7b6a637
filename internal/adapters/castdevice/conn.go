package castdevice

import (
	"context"
	"fmt"
	"time"

	"github.com/vishen/go-chromecast/application"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

// Receiver app ids for the first-party YouTube applications.
const (
	YouTubeAppID      = "233637DE"
	YouTubeMusicAppID = "2175C56B"
)

// AppID maps a native app identifier to its cast receiver app id.
func AppID(app domain.NativeApp) string {
	if app == domain.AppYouTubeMusic {
		return YouTubeMusicAppID
	}
	return YouTubeAppID
}

// Connector opens go-chromecast control channels with transient-error retry.
type Connector struct {
	attempts    int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewConnector() *Connector {
	return &Connector{
		attempts:    defaultRetryAttempts,
		baseBackoff: defaultRetryBaseBackoff,
		maxBackoff:  defaultRetryMaxBackoff,
	}
}

func (c *Connector) Connect(ctx context.Context, device domain.Device) (adapters.CastConn, error) {
	app := application.NewApplication(
		application.WithDebug(false),
		application.WithCacheDisabled(true),
	)

	err := withRetry(ctx, c.attempts, c.baseBackoff, c.maxBackoff, func() error {
		return app.Start(device.Host, device.Port)
	})
	if err != nil {
		return nil, domain.WrapError(domain.CodeDiscoveryFailed,
			fmt.Sprintf("failed to connect to %q", device.Name), err)
	}
	return &conn{app: app}, nil
}

type conn struct {
	app *application.Application
}

func (c *conn) LoadApp(appID, contentID string) error {
	return c.app.LoadApp(appID, contentID)
}

func (c *conn) LoadMedia(mediaURL, contentType, title, thumbnailURL string) error {
	// go-chromecast's default receiver takes only URL and content type; the
	// title and thumbnail ride along in the relay's playlist export instead.
	return c.app.Load(mediaURL, 0, contentType, false, true, true)
}

func (c *conn) PlayerState() (domain.PlayerState, error) {
	if err := c.app.Update(); err != nil {
		return domain.StateUnknown, err
	}
	_, media, _ := c.app.Status()
	if media == nil {
		return domain.StateIdle, nil
	}
	return domain.NormalizePlayerState(media.PlayerState), nil
}

func (c *conn) Stop() error {
	return c.app.Stop()
}

func (c *conn) Close() error {
	return c.app.Close(false)
}
