package domain

// TargetResult is the per-device outcome of a multi-target play request.
type TargetResult struct {
	TargetID string `json:"target_id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// PlayReport summarizes a play request. A request with at least one
// successful target is a success.
type PlayReport struct {
	Kind       string         `json:"kind"`
	VideoID    string         `json:"video_id,omitempty"`
	ListID     string         `json:"list_id,omitempty"`
	TrackCount int            `json:"track_count,omitempty"`
	Dispatched bool           `json:"dispatched"`
	Targets    []TargetResult `json:"targets,omitempty"`
}

// Succeeded reports whether any target accepted playback.
func (r PlayReport) Succeeded() bool {
	for _, target := range r.Targets {
		if target.OK {
			return true
		}
	}
	return false
}
