// Package dispatch plays one track on one device by walking the strategy
// ladder: native receiver app, then direct googlevideo stream, then the
// local relay proxy. The relay attempt's outcome is the overall outcome.
package dispatch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const defaultAttemptTimeout = 15 * time.Second

// DeviceController is the slice of device control the dispatcher needs.
type DeviceController interface {
	Capabilities(ctx context.Context, targetID string) (domain.Device, error)
	PlayNativeApp(ctx context.Context, targetID string, app domain.NativeApp, videoID, listID string) error
	PlayDirectStream(ctx context.Context, targetID, streamURL, mimeType, title, thumbnailURL string) error
	PlayMedia(ctx context.Context, targetID, mediaURL, mimeType, title, thumbnailURL string) error
}

// MetadataResolver resolves a track to stream metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, trackID string) (domain.TrackMedia, error)
}

type Dispatcher struct {
	controller     DeviceController
	resolver       MetadataResolver
	baseURL        string
	attemptTimeout time.Duration
	logger         *log.Logger
}

type Options struct {
	AttemptTimeout time.Duration
	Logger         *log.Logger
}

// PlayOptions carry per-dispatch preferences.
type PlayOptions struct {
	// PlaylistID is handed to native receiver apps so they can continue the
	// list themselves.
	PlaylistID string
	// PreferMusicApp launches the YouTube Music receiver before YouTube.
	PreferMusicApp bool
}

func New(controller DeviceController, resolver MetadataResolver, baseURL string, opts Options) *Dispatcher {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	return &Dispatcher{
		controller:     controller,
		resolver:       resolver,
		baseURL:        baseURL,
		attemptTimeout: opts.AttemptTimeout,
		logger:         opts.Logger,
	}
}

// Play dispatches one track to one device. hints fill in display metadata
// when resolution fails; resolution failure alone never fails the dispatch.
func (d *Dispatcher) Play(ctx context.Context, targetID, trackID string, hints domain.PlaybackHints, opts PlayOptions) error {
	device, err := d.controller.Capabilities(ctx, targetID)
	if err != nil {
		return err
	}

	if device.HasScreen() {
		for _, app := range d.appOrder(opts.PreferMusicApp) {
			err := d.attempt(ctx, func(attemptCtx context.Context) error {
				return d.controller.PlayNativeApp(attemptCtx, targetID, app, trackID, opts.PlaylistID)
			})
			if err == nil {
				d.logger.Debug("native app dispatch", "target", targetID, "track", trackID, "app", app)
				return nil
			}
			d.logger.Debug("native app attempt failed", "target", targetID, "app", app, "err", err)
		}
	}

	title, artist, thumb := hints.Title, hints.Artist, hints.ThumbnailURL
	mimeType := domain.DefaultMimeType
	media, resolveErr := d.resolver.Resolve(ctx, trackID)
	if resolveErr == nil {
		if media.Title != "" {
			title = media.Title
		}
		if media.Artist != "" {
			artist = media.Artist
		}
		if media.ThumbnailURL != "" {
			thumb = media.ThumbnailURL
		}
		if media.MimeType != "" {
			mimeType = media.MimeType
		}
	} else {
		d.logger.Debug("resolution failed, dispatching on hints", "track", trackID, "err", resolveErr)
	}

	label := domain.Track{Title: title, Artist: artist, ID: trackID}.Label()

	if resolveErr == nil && media.StreamURL != "" {
		err := d.attempt(ctx, func(attemptCtx context.Context) error {
			return d.controller.PlayDirectStream(attemptCtx, targetID, media.StreamURL, mimeType, label, thumb)
		})
		if err == nil {
			d.logger.Debug("direct stream dispatch", "target", targetID, "track", trackID)
			return nil
		}
		d.logger.Debug("direct stream attempt failed", "target", targetID, "err", err)
	}

	relayURL := d.baseURL + "/relay/" + trackID
	err = d.attempt(ctx, func(attemptCtx context.Context) error {
		return d.controller.PlayMedia(attemptCtx, targetID, relayURL, mimeType, label, thumb)
	})
	if err != nil {
		return domain.WrapError(domain.CodeDispatchFailed,
			"all dispatch strategies failed for "+trackID, err)
	}
	d.logger.Debug("relay dispatch", "target", targetID, "track", trackID)
	return nil
}

func (d *Dispatcher) appOrder(preferMusic bool) []domain.NativeApp {
	if preferMusic {
		return []domain.NativeApp{domain.AppYouTubeMusic, domain.AppYouTube}
	}
	return []domain.NativeApp{domain.AppYouTube, domain.AppYouTubeMusic}
}

func (d *Dispatcher) attempt(ctx context.Context, call func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()
	return call(attemptCtx)
}
