// Package control exposes high-level playback operations on named devices,
// resolving them through the device directory and driving their cast
// connections.
package control

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters/castdevice"
	"github.com/1bobby-git/ytmusic-bridge/internal/directory"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

type Controller struct {
	dir    *directory.Directory
	logger *log.Logger
}

func New(dir *directory.Directory, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(nil)
	}
	return &Controller{dir: dir, logger: logger}
}

// Capabilities resolves the target and returns its device record.
func (c *Controller) Capabilities(ctx context.Context, targetID string) (domain.Device, error) {
	return c.dir.Resolve(ctx, targetID)
}

// PlayNativeApp launches a first-party YouTube receiver app with the video.
func (c *Controller) PlayNativeApp(ctx context.Context, targetID string, app domain.NativeApp, videoID, listID string) error {
	contentID := videoID
	if contentID == "" {
		contentID = listID
	}
	if contentID == "" {
		return domain.NewError(domain.CodeDispatchFailed, "native app launch needs a content id")
	}
	return c.withConn(ctx, targetID, func(conn connOps) error {
		return conn.LoadApp(castdevice.AppID(app), contentID)
	})
}

// PlayDirectStream pushes a raw stream URL to the default receiver.
func (c *Controller) PlayDirectStream(ctx context.Context, targetID, streamURL, mimeType, title, thumbnailURL string) error {
	return c.withConn(ctx, targetID, func(conn connOps) error {
		return conn.LoadMedia(streamURL, mimeType, title, thumbnailURL)
	})
}

// PlayMedia pushes any media URL (typically a relay URL) to the device.
func (c *Controller) PlayMedia(ctx context.Context, targetID, mediaURL, mimeType, title, thumbnailURL string) error {
	return c.withConn(ctx, targetID, func(conn connOps) error {
		return conn.LoadMedia(mediaURL, mimeType, title, thumbnailURL)
	})
}

// PlayerState reads the normalized player state of the target.
func (c *Controller) PlayerState(ctx context.Context, targetID string) (domain.PlayerState, error) {
	var state domain.PlayerState
	err := c.withConn(ctx, targetID, func(conn connOps) error {
		var stateErr error
		state, stateErr = conn.PlayerState()
		return stateErr
	})
	if err != nil {
		return domain.StateUnknown, err
	}
	return state, nil
}

// StopPlayback stops whatever the target is playing.
func (c *Controller) StopPlayback(ctx context.Context, targetID string) error {
	return c.withConn(ctx, targetID, func(conn connOps) error {
		return conn.Stop()
	})
}

type connOps interface {
	LoadApp(appID, contentID string) error
	LoadMedia(mediaURL, contentType, title, thumbnailURL string) error
	PlayerState() (domain.PlayerState, error)
	Stop() error
}

// withConn runs op against the target's cached connection, bounded by ctx.
// A failed connection is dropped so the next call reconnects. The cast
// protocol calls themselves are not cancellable, so a timed-out call is
// abandoned in its goroutine.
func (c *Controller) withConn(ctx context.Context, targetID string, op func(connOps) error) error {
	conn, err := c.dir.Conn(ctx, targetID)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- op(conn)
	}()

	select {
	case <-ctx.Done():
		c.dir.DropConn(targetID)
		return domain.WrapError(domain.CodeDispatchFailed, "device call timed out", ctx.Err())
	case err := <-errCh:
		if err != nil {
			c.dir.DropConn(targetID)
			return domain.WrapError(domain.CodeDispatchFailed, "device call failed", err)
		}
		return nil
	}
}
