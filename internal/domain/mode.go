package domain

import (
	"fmt"
	"strings"
)

// PlaybackMode controls what happens when a queue reaches its last track and
// how the play order is structured. Modes may change while a queue is live;
// the change takes effect on the next advance.
type PlaybackMode string

const (
	// ModeSequential plays tracks in order and wraps to the start.
	ModeSequential PlaybackMode = "sequential"
	// ModeOnce plays tracks in order and retires the queue at the end.
	ModeOnce PlaybackMode = "once"
	// ModeShuffle plays a random permutation and reshuffles on wrap.
	ModeShuffle PlaybackMode = "shuffle"
)

func ParsePlaybackMode(raw string) (PlaybackMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sequential", "loop", "":
		return ModeSequential, nil
	case "once", "play_once":
		return ModeOnce, nil
	case "shuffle", "random":
		return ModeShuffle, nil
	default:
		return "", fmt.Errorf("unknown playback mode %q", raw)
	}
}

// PlayerState is the normalized cast player state.
type PlayerState string

const (
	StatePlaying   PlayerState = "playing"
	StatePaused    PlayerState = "paused"
	StateBuffering PlayerState = "buffering"
	StateIdle      PlayerState = "idle"
	StateUnknown   PlayerState = "unknown"
)

// NormalizePlayerState maps raw receiver states onto the normalized set.
func NormalizePlayerState(raw string) PlayerState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PLAYING":
		return StatePlaying
	case "PAUSED":
		return StatePaused
	case "BUFFERING", "LOADING":
		return StateBuffering
	case "IDLE", "STOPPED", "":
		return StateIdle
	default:
		return StateUnknown
	}
}
