// Package extract resolves YouTube ids to stream metadata via yt-dlp and
// lists playlist items via the pure-Go extractor.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const (
	audioFormat   = "bestaudio[ext=webm]/bestaudio"
	printTemplate = "%(url)s\t%(title)s\t%(uploader)s\t%(thumbnail)s\t%(ext)s"
	watchURL      = "https://music.youtube.com/watch?v=%s"
)

// StreamExtractor shells out to yt-dlp for googlevideo stream URLs.
type StreamExtractor struct{}

func NewStreamExtractor() *StreamExtractor {
	return &StreamExtractor{}
}

func (e *StreamExtractor) Extract(ctx context.Context, videoID string) (domain.TrackMedia, error) {
	res, err := ytdlp.New().
		Format(audioFormat).
		Print(printTemplate).
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", fmt.Sprintf(watchURL, videoID))
	if err != nil {
		return domain.TrackMedia{}, err
	}

	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 5 || fields[0] == "" {
			continue
		}
		return domain.TrackMedia{
			TrackID:      videoID,
			StreamURL:    fields[0],
			Title:        blankToEmpty(fields[1]),
			Artist:       blankToEmpty(fields[2]),
			ThumbnailURL: blankToEmpty(fields[3]),
			MimeType:     mimeForExt(fields[4]),
		}, nil
	}
	return domain.TrackMedia{}, errors.New("no stream url in yt-dlp output")
}

// yt-dlp prints "NA" for missing fields.
func blankToEmpty(field string) string {
	if field == "NA" {
		return ""
	}
	return field
}

func mimeForExt(ext string) string {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case "webm":
		return "audio/webm"
	case "opus", "ogg":
		return "audio/ogg"
	case "mp3":
		return "audio/mpeg"
	default:
		return domain.DefaultMimeType
	}
}

func fallbackTitle(index int) string {
	return "Track " + strconv.Itoa(index+1)
}
