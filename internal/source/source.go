// Package source loads the tracks of a playlist or album. A configured
// ytmusicapi proxy is tried first for rich metadata, with seeded
// watch-playlist rungs for lists the direct endpoints cannot serve; the
// pure-Go flat playlist extractor is the final fallback.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const (
	defaultFetchTimeout = 30 * time.Second
	albumBrowsePrefix   = "MPRE"
)

// TrackSource resolves playlist and album ids to track lists.
type TrackSource struct {
	proxyURL     string
	client       *http.Client
	lister       adapters.PlaylistLister
	fetchTimeout time.Duration
	logger       *log.Logger
}

type Options struct {
	ProxyURL     string
	Lister       adapters.PlaylistLister
	FetchTimeout time.Duration
	Logger       *log.Logger
	// HTTPClient overrides the retrying client, for tests.
	HTTPClient *http.Client
}

func New(opts Options) *TrackSource {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	client := opts.HTTPClient
	if client == nil {
		retrying := retryablehttp.NewClient()
		retrying.RetryMax = 2
		retrying.Logger = nil
		client = retrying.StandardClient()
	}
	return &TrackSource{
		proxyURL:     strings.TrimSuffix(opts.ProxyURL, "/"),
		client:       client,
		lister:       opts.Lister,
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger,
	}
}

// Tracks loads the playlist's tracks. Album browse ids are routed to the
// album endpoint. When the direct endpoint fails and a seed video id is
// known, the watch-playlist rungs are tried with the seed, first scoped to
// the list and then video-only, which serves mixes and other lists the
// playlist endpoint cannot. Every rung is time-bounded; an empty result from
// all rungs is a resolution failure.
func (s *TrackSource) Tracks(ctx context.Context, listID, seedVideoID string) ([]domain.Track, error) {
	if listID == "" {
		return nil, domain.NewError(domain.CodeResolutionFailed, "empty playlist id")
	}

	if s.proxyURL != "" {
		tracks, err := s.fetchTracks(ctx, s.listEndpoint(listID))
		if err == nil && len(tracks) > 0 {
			return tracks, nil
		}
		if err != nil {
			s.logger.Warn("proxy playlist fetch failed, falling back", "list", listID, "err", err)
		}

		if seedVideoID != "" {
			tracks, err = s.fetchTracks(ctx, s.watchEndpoint(seedVideoID, listID))
			if err == nil && len(tracks) > 0 {
				return tracks, nil
			}
			if err != nil {
				s.logger.Warn("watch playlist fetch failed", "list", listID, "seed", seedVideoID, "err", err)
			}

			tracks, err = s.fetchTracks(ctx, s.watchEndpoint(seedVideoID, ""))
			if err == nil && len(tracks) > 0 {
				return tracks, nil
			}
			if err != nil {
				s.logger.Warn("video-only watch fetch failed", "seed", seedVideoID, "err", err)
			}
		}
	}

	if s.lister != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		tracks, err := s.lister.PlaylistItems(fetchCtx, listID)
		if err == nil && len(tracks) > 0 {
			return tracks, nil
		}
		if err != nil {
			s.logger.Warn("flat playlist fetch failed", "list", listID, "err", err)
		}
	}

	return nil, domain.NewError(domain.CodeResolutionFailed,
		fmt.Sprintf("no tracks found for playlist %q", listID))
}

func (s *TrackSource) listEndpoint(listID string) string {
	if strings.HasPrefix(listID, albumBrowsePrefix) {
		return s.proxyURL + "/api/albums/" + listID
	}
	return s.proxyURL + "/api/playlists/" + listID
}

func (s *TrackSource) watchEndpoint(videoID, listID string) string {
	endpoint := s.proxyURL + "/api/watch/" + videoID
	if listID != "" {
		endpoint += "?list=" + url.QueryEscape(listID)
	}
	return endpoint
}

// proxyTrack mirrors the ytmusicapi track shape.
type proxyTrack struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	DurationSeconds int `json:"duration_seconds"`
}

type proxyPlaylist struct {
	Tracks []proxyTrack `json:"tracks"`
}

func (s *TrackSource) fetchTracks(ctx context.Context, endpoint string) ([]domain.Track, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy returned status %d", resp.StatusCode)
	}

	var playlist proxyPlaylist
	if err := json.NewDecoder(resp.Body).Decode(&playlist); err != nil {
		return nil, fmt.Errorf("failed to decode proxy response: %w", err)
	}

	tracks := make([]domain.Track, 0, len(playlist.Tracks))
	for _, pt := range playlist.Tracks {
		track := domain.Track{
			ID:          pt.VideoID,
			Title:       pt.Title,
			DurationSec: pt.DurationSeconds,
		}
		if len(pt.Artists) > 0 {
			track.Artist = pt.Artists[0].Name
		}
		if len(pt.Thumbnails) > 0 {
			// ytmusicapi orders thumbnails smallest first.
			track.ThumbnailURL = pt.Thumbnails[len(pt.Thumbnails)-1].URL
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}
