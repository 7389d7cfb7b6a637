package relay

import (
	"fmt"
	"strings"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const m3uContentType = "audio/x-mpegurl"

// renderM3U writes an extended M3U playlist whose entries stream through the
// relay. Entries without a track id are skipped.
func renderM3U(baseURL string, tracks []domain.Track) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}
		duration := track.DurationSec
		if duration <= 0 {
			duration = -1
		}
		fmt.Fprintf(&b, "#EXTINF:%d,%s\n", duration, track.Label())
		if track.ThumbnailURL != "" {
			fmt.Fprintf(&b, "#EXTIMG:%s\n", track.ThumbnailURL)
		}
		fmt.Fprintf(&b, "%s/relay/%s\n", baseURL, track.ID)
	}
	return b.String()
}
