package diagnostics

import (
	"errors"
	"testing"
)

func TestDetectDependencies(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() {
		lookPath = orig
	})

	lookPath = func(file string) (string, error) {
		switch file {
		case "yt-dlp":
			return "/usr/bin/yt-dlp", nil
		case "ffmpeg":
			return "", errors.New("not found")
		default:
			return "", errors.New("not found")
		}
	}

	report := DetectDependencies()
	if !report.YTDLP.Found {
		t.Fatal("expected yt-dlp to be found")
	}
	if report.YTDLP.Path != "/usr/bin/yt-dlp" {
		t.Fatalf("unexpected yt-dlp path: %s", report.YTDLP.Path)
	}
	if report.FFmpeg.Found {
		t.Fatal("expected ffmpeg to be missing")
	}
	if !report.AllRequiredPresent {
		t.Fatal("ffmpeg is optional; yt-dlp alone satisfies requirements")
	}
}

func TestDetectDependenciesMissingYTDLP(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() {
		lookPath = orig
	})

	lookPath = func(file string) (string, error) {
		return "", errors.New("not found")
	}

	report := DetectDependencies()
	if report.AllRequiredPresent {
		t.Fatal("expected AllRequiredPresent to be false without yt-dlp")
	}
}
