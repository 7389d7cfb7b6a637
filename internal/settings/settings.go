// Package settings holds runtime-mutable playback settings. Components that
// only read settings receive the Accessor view.
package settings

import (
	"sync"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

// Accessor is the read-only view handed to the queue engine and the play
// service.
type Accessor interface {
	TargetOverride() string
	PlaybackMode() domain.PlaybackMode
	AutoPlay() bool
}

// Store is a thread-safe settings store seeded from configuration.
type Store struct {
	mu             sync.RWMutex
	targetOverride string
	mode           domain.PlaybackMode
	autoPlay       bool
}

func NewStore(mode domain.PlaybackMode, autoPlay bool) *Store {
	return &Store{mode: mode, autoPlay: autoPlay}
}

func (s *Store) TargetOverride() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targetOverride
}

func (s *Store) SetTargetOverride(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetOverride = target
}

func (s *Store) PlaybackMode() domain.PlaybackMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Store) SetPlaybackMode(mode domain.PlaybackMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *Store) AutoPlay() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoPlay
}

func (s *Store) SetAutoPlay(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPlay = enabled
}
