package domain

import "strings"

type Device struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Model       string `json:"model"`
	IsAudioOnly bool   `json:"is_audio_only"`
}

// HasScreen reports whether the device can render a cast receiver UI, which
// is what the native YouTube apps require.
func (d Device) HasScreen() bool {
	return !d.IsAudioOnly
}

// NativeApp identifies a first-party cast receiver application.
type NativeApp string

const (
	AppYouTube      NativeApp = "youtube"
	AppYouTubeMusic NativeApp = "youtube_music"
)

// audioOnlyModels lists model names known to ship without a display. Partial
// matching below covers renamed variants.
var audioOnlyModels = map[string]bool{
	"Google Home":        true,
	"Google Home Mini":   true,
	"Google Home Max":    true,
	"Google Nest Mini":   true,
	"Google Nest Audio":  true,
	"Chromecast Audio":   true,
	"Google Cast Group":  true,
	"Lenovo Smart Clock": true,
	"JBL Link":           true,
}

// IsAudioOnlyModel classifies a discovered model string as audio-only.
func IsAudioOnlyModel(model string) bool {
	if audioOnlyModels[model] {
		return true
	}
	lower := strings.ToLower(model)
	return strings.Contains(lower, "speaker") ||
		strings.Contains(lower, "audio") ||
		strings.Contains(lower, "home mini") ||
		strings.Contains(lower, "nest mini") ||
		strings.Contains(lower, "cast group")
}
