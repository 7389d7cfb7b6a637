// Package service implements the play-URL invocation surface: target
// resolution, URL classification and fan-out to queues or single dispatches.
package service

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/1bobby-git/ytmusic-bridge/internal/dispatch"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
	"github.com/1bobby-git/ytmusic-bridge/internal/linkparse"
	"github.com/1bobby-git/ytmusic-bridge/internal/settings"
)

// QueueStarter installs playlist queues.
type QueueStarter interface {
	StartPlaylist(ctx context.Context, targetID, playlistID string, tracks []domain.Track, startIndex int, preferMusic bool) error
}

// TrackDispatcher plays a single track on a device.
type TrackDispatcher interface {
	Play(ctx context.Context, targetID, trackID string, hints domain.PlaybackHints, opts dispatch.PlayOptions) error
}

// PlaylistSource loads playlist tracks, optionally seeded with a video id
// for lists the direct endpoints cannot serve.
type PlaylistSource interface {
	Tracks(ctx context.Context, listID, seedVideoID string) ([]domain.Track, error)
}

type Service struct {
	queue          QueueStarter
	dispatcher     TrackDispatcher
	source         PlaylistSource
	settings       settings.Accessor
	defaultTargets []string
	preferMusicApp bool
	logger         *log.Logger
}

type Options struct {
	DefaultTargets []string
	PreferMusicApp bool
	Logger         *log.Logger
}

func New(queue QueueStarter, dispatcher TrackDispatcher, source PlaylistSource, accessor settings.Accessor, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	return &Service{
		queue:          queue,
		dispatcher:     dispatcher,
		source:         source,
		settings:       accessor,
		defaultTargets: opts.DefaultTargets,
		preferMusicApp: opts.PreferMusicApp,
		logger:         opts.Logger,
	}
}

// PlayURL classifies rawURL and plays it on the resolved targets. Target
// precedence is explicit targets, then the runtime override, then the
// configured defaults. The report tallies per-target outcomes; the error is
// non-nil only when nothing could be played anywhere.
func (s *Service) PlayURL(ctx context.Context, rawURL string, targets []string) (domain.PlayReport, error) {
	resolved, err := s.resolveTargets(targets)
	if err != nil {
		return domain.PlayReport{}, err
	}

	link := linkparse.Parse(rawURL)
	report := domain.PlayReport{
		Kind:    string(link.Kind),
		VideoID: link.VideoID,
		ListID:  link.ListID,
	}
	if link.Kind == linkparse.KindUnknown {
		return report, domain.NewError(domain.CodeResolutionFailed,
			"could not classify url: "+rawURL)
	}

	preferMusic := s.preferMusicApp || link.IsMusic

	if link.Kind == linkparse.KindPlaylist || link.Kind == linkparse.KindAlbum {
		return s.playPlaylist(ctx, link, resolved, preferMusic, report)
	}
	return s.playSingle(ctx, link.VideoID, "", resolved, preferMusic, report)
}

func (s *Service) resolveTargets(explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if override := s.settings.TargetOverride(); override != "" {
		return []string{override}, nil
	}
	if len(s.defaultTargets) > 0 {
		return s.defaultTargets, nil
	}
	return nil, domain.NewError(domain.CodeConfigInvalid,
		"no target device: pass targets, set an override or configure defaults")
}

func (s *Service) playPlaylist(ctx context.Context, link linkparse.Link, targets []string, preferMusic bool, report domain.PlayReport) (domain.PlayReport, error) {
	tracks, err := s.source.Tracks(ctx, link.ListID, link.VideoID)
	if err != nil || len(tracks) == 0 {
		// Degrade to single-track playback of the seed video.
		if link.VideoID == "" {
			if err == nil {
				err = domain.NewError(domain.CodeResolutionFailed, "playlist is empty")
			}
			return report, err
		}
		s.logger.Warn("playlist load failed, degrading to seed video", "list", link.ListID, "err", err)
		return s.playSingle(ctx, link.VideoID, "", targets, preferMusic, report)
	}

	report.TrackCount = len(tracks)
	startIndex := 0
	for i, track := range tracks {
		if link.VideoID != "" && track.ID == link.VideoID {
			startIndex = i
			break
		}
	}

	for _, target := range targets {
		result := domain.TargetResult{TargetID: target}
		if err := s.queue.StartPlaylist(ctx, target, link.ListID, tracks, startIndex, preferMusic); err != nil {
			result.Error = err.Error()
			s.logger.Warn("playlist start failed", "target", target, "err", err)
		} else {
			result.OK = true
		}
		report.Targets = append(report.Targets, result)
	}
	report.Dispatched = true

	if !report.Succeeded() {
		return report, domain.NewError(domain.CodeDispatchFailed, "playlist start failed on every target")
	}
	return report, nil
}

func (s *Service) playSingle(ctx context.Context, videoID, playlistID string, targets []string, preferMusic bool, report domain.PlayReport) (domain.PlayReport, error) {
	opts := dispatch.PlayOptions{PlaylistID: playlistID, PreferMusicApp: preferMusic}
	for _, target := range targets {
		result := domain.TargetResult{TargetID: target}
		if err := s.dispatcher.Play(ctx, target, videoID, domain.PlaybackHints{}, opts); err != nil {
			result.Error = err.Error()
			s.logger.Warn("dispatch failed", "target", target, "track", videoID, "err", err)
		} else {
			result.OK = true
		}
		report.Targets = append(report.Targets, result)
	}
	report.Dispatched = true

	if !report.Succeeded() {
		return report, domain.NewError(domain.CodeDispatchFailed, "playback failed on every target")
	}
	return report, nil
}
