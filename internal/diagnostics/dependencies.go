package diagnostics

import "os/exec"

var lookPath = exec.LookPath

type BinaryStatus struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// DependencyReport lists the external binaries the bridge shells out to.
// yt-dlp is required for stream extraction; ffmpeg is optional and only
// improves format selection.
type DependencyReport struct {
	YTDLP              BinaryStatus `json:"yt_dlp"`
	FFmpeg             BinaryStatus `json:"ffmpeg"`
	AllRequiredPresent bool         `json:"all_required_present"`
}

func DetectDependencies() DependencyReport {
	ytdlp := detectBinary("yt-dlp")
	ffmpeg := detectBinary("ffmpeg")

	return DependencyReport{
		YTDLP:              ytdlp,
		FFmpeg:             ffmpeg,
		AllRequiredPresent: ytdlp.Found,
	}
}

func detectBinary(name string) BinaryStatus {
	path, err := lookPath(name)
	if err != nil {
		return BinaryStatus{Found: false}
	}

	return BinaryStatus{
		Found: true,
		Path:  path,
	}
}
