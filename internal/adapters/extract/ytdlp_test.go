package extract

import (
	"testing"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

func TestMimeForExt(t *testing.T) {
	cases := []struct {
		ext  string
		want string
	}{
		{"webm", "audio/webm"},
		{"WEBM", "audio/webm"},
		{"opus", "audio/ogg"},
		{"mp3", "audio/mpeg"},
		{"m4a", domain.DefaultMimeType},
		{"", domain.DefaultMimeType},
		{"NA", domain.DefaultMimeType},
	}
	for _, tc := range cases {
		if got := mimeForExt(tc.ext); got != tc.want {
			t.Errorf("mimeForExt(%q) = %q, want %q", tc.ext, got, tc.want)
		}
	}
}

func TestBlankToEmpty(t *testing.T) {
	if got := blankToEmpty("NA"); got != "" {
		t.Errorf("blankToEmpty(NA) = %q", got)
	}
	if got := blankToEmpty("Some Artist"); got != "Some Artist" {
		t.Errorf("blankToEmpty = %q", got)
	}
}

func TestFallbackTitle(t *testing.T) {
	if got := fallbackTitle(0); got != "Track 1" {
		t.Errorf("fallbackTitle(0) = %q", got)
	}
	if got := fallbackTitle(9); got != "Track 10" {
		t.Errorf("fallbackTitle(9) = %q", got)
	}
}
