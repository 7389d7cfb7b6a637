// Package linkparse classifies pasted YouTube and YouTube Music URLs into
// playable link kinds. Parsing is pure: no network, no shared state.
package linkparse

import (
	"net/url"
	"strings"
)

type Kind string

const (
	KindVideo    Kind = "video"
	KindPlaylist Kind = "playlist"
	KindAlbum    Kind = "album"
	KindUnknown  Kind = "unknown"
)

const videoIDLength = 11

// Link is the classification result for one pasted URL.
type Link struct {
	Raw      string
	Kind     Kind
	VideoID  string
	ListID   string
	BrowseID string
	IsMusic  bool
}

var schemelessHosts = []string{
	"music.youtube.com",
	"www.youtube.com",
	"youtube.com",
	"m.youtube.com",
	"youtu.be/",
}

// Parse classifies a raw URL. An unparseable or unrecognized URL yields
// KindUnknown; callers decide whether that is an error.
func Parse(raw string) Link {
	link := Link{Raw: raw, Kind: KindUnknown}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return link
	}
	for _, prefix := range schemelessHosts {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = "https://" + trimmed
			break
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return link
	}

	host := strings.ToLower(parsed.Hostname())
	link.IsMusic = host == "music.youtube.com"
	query := parsed.Query()
	videoID := query.Get("v")
	listID := query.Get("list")

	if host == "youtu.be" {
		if id := firstPathSegment(parsed.Path); id != "" {
			link.Kind = KindVideo
			link.VideoID = id
		}
		return link
	}

	path := strings.TrimSuffix(parsed.Path, "/")
	switch {
	case path == "/watch":
		switch {
		case listID != "":
			link.Kind = KindPlaylist
			link.ListID = listID
			link.VideoID = videoID
		case videoID != "":
			link.Kind = KindVideo
			link.VideoID = videoID
		}
	case path == "/playlist":
		if listID != "" {
			link.Kind = KindPlaylist
			link.ListID = listID
		}
	case strings.HasPrefix(path, "/browse/"):
		browseID := firstPathSegment(strings.TrimPrefix(path, "/browse"))
		link.BrowseID = browseID
		switch {
		case strings.HasPrefix(browseID, "VL"):
			link.Kind = KindPlaylist
			link.ListID = strings.TrimPrefix(browseID, "VL")
		case strings.HasPrefix(browseID, "MPRE"):
			link.Kind = KindAlbum
			link.ListID = browseID
		}
	case strings.HasPrefix(path, "/podcast/"):
		id := firstPathSegment(strings.TrimPrefix(path, "/podcast"))
		if id == "" {
			break
		}
		if len(id) == videoIDLength {
			link.Kind = KindVideo
			link.VideoID = id
		} else {
			link.Kind = KindPlaylist
			link.ListID = id
			link.BrowseID = id
		}
	case strings.HasPrefix(path, "/channel/"):
		// Channel pages are only playable when a specific video is pinned.
		if videoID != "" {
			link.Kind = KindVideo
			link.VideoID = videoID
		}
	default:
		switch {
		case listID != "":
			link.Kind = KindPlaylist
			link.ListID = listID
			link.VideoID = videoID
		case videoID != "":
			link.Kind = KindVideo
			link.VideoID = videoID
		}
	}

	return link
}

func firstPathSegment(path string) string {
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			return segment
		}
	}
	return ""
}
