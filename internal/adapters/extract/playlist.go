package extract

import (
	"context"

	"github.com/ytget/ytdlp/v2"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

// FlatPlaylistLister lists playlist items via the pure-Go extractor. Used as
// the fallback rung when no ytmusicapi proxy is configured.
type FlatPlaylistLister struct{}

func NewFlatPlaylistLister() *FlatPlaylistLister {
	return &FlatPlaylistLister{}
}

func (l *FlatPlaylistLister) PlaylistItems(ctx context.Context, listID string) ([]domain.Track, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, listID, 0)
	if err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(items))
	for i, item := range items {
		title := item.Title
		if title == "" {
			title = fallbackTitle(i)
		}
		tracks = append(tracks, domain.Track{
			ID:    item.VideoID,
			Title: title,
		})
	}
	return tracks, nil
}
