// Package queue drives continuous playlist playback, one queue per device.
// A queue advances when its device transitions playing -> idle, survives
// live playback-mode changes and absorbs per-track failures by moving on.
package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/1bobby-git/ytmusic-bridge/internal/dispatch"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
	"github.com/1bobby-git/ytmusic-bridge/internal/settings"
	"github.com/1bobby-git/ytmusic-bridge/internal/watch"
)

// TrackDispatcher plays one track on one device.
type TrackDispatcher interface {
	Play(ctx context.Context, targetID, trackID string, hints domain.PlaybackHints, opts dispatch.PlayOptions) error
}

// Subscriber registers player-state callbacks per device.
type Subscriber interface {
	Subscribe(targetID string, cb watch.Callback) func()
}

// Prefetcher warms the metadata cache for an upcoming track.
type Prefetcher interface {
	Prefetch(ctx context.Context, trackID string)
}

// Submitter hands fire-and-forget work to the background pool.
type Submitter interface {
	Submit(name string, fn func() error) bool
}

type playbackQueue struct {
	id          string
	targetID    string
	playlistID  string
	preferMusic bool
	original    []domain.Track
	order       []domain.Track
	pos         int
	appliedMode domain.PlaybackMode
	unsubscribe func()
}

type Engine struct {
	dispatcher TrackDispatcher
	hub        Subscriber
	prefetcher Prefetcher
	pool       Submitter
	settings   settings.Accessor
	logger     *log.Logger
	shuffle    func(n int, swap func(i, j int))

	mu     sync.Mutex
	queues map[string]*playbackQueue
}

type Options struct {
	Logger *log.Logger
	// Shuffle overrides the permutation source, for deterministic tests.
	Shuffle func(n int, swap func(i, j int))
}

func NewEngine(dispatcher TrackDispatcher, hub Subscriber, prefetcher Prefetcher, pool Submitter, accessor settings.Accessor, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	return &Engine{
		dispatcher: dispatcher,
		hub:        hub,
		prefetcher: prefetcher,
		pool:       pool,
		settings:   accessor,
		logger:     opts.Logger,
		shuffle:    opts.Shuffle,
		queues:     map[string]*playbackQueue{},
	}
}

// StartPlaylist installs a fresh queue for the target, retiring any previous
// one, and dispatches the first playable track. In shuffle mode playback
// starts at position 0 of a fresh permutation regardless of startIndex.
func (e *Engine) StartPlaylist(ctx context.Context, targetID, playlistID string, tracks []domain.Track, startIndex int, preferMusic bool) error {
	if len(tracks) == 0 {
		return domain.NewError(domain.CodeResolutionFailed, "refusing to start an empty playlist")
	}

	e.mu.Lock()
	if prev := e.queues[targetID]; prev != nil {
		e.retireLocked(prev)
	}

	mode := e.settings.PlaybackMode()
	q := &playbackQueue{
		id:          uuid.New().String(),
		targetID:    targetID,
		playlistID:  playlistID,
		preferMusic: preferMusic,
		original:    append([]domain.Track(nil), tracks...),
		appliedMode: mode,
	}
	if mode == domain.ModeShuffle {
		q.order = e.shuffled(q.original)
		q.pos = 0
	} else {
		q.order = append([]domain.Track(nil), tracks...)
		if startIndex < 0 || startIndex >= len(q.order) {
			startIndex = 0
		}
		q.pos = startIndex
	}

	qid := q.id
	q.unsubscribe = e.hub.Subscribe(targetID, func(old, next domain.PlayerState) {
		e.onStateChanged(targetID, qid, old, next)
	})
	e.queues[targetID] = q
	e.mu.Unlock()

	return e.playCurrent(ctx, targetID, qid)
}

// StopPlaylist retires the target's queue. Stopping a target without a queue
// is a no-op. The state subscription is released before this returns.
func (e *Engine) StopPlaylist(targetID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if q := e.queues[targetID]; q != nil {
		e.retireLocked(q)
	}
}

// ClearAll retires every queue.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, q := range e.queues {
		e.retireLocked(q)
	}
}

// QueueInfo snapshots the target's queue.
func (e *Engine) QueueInfo(targetID string) (domain.QueueInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.queues[targetID]
	if q == nil {
		return domain.QueueInfo{TargetID: targetID}, false
	}
	info := domain.QueueInfo{
		TargetID:    targetID,
		TotalTracks: len(q.order),
		Position:    q.pos,
		Mode:        q.appliedMode,
		Active:      true,
	}
	if q.pos >= 0 && q.pos < len(q.order) {
		track := q.order[q.pos]
		info.CurrentTrack = &track
	}
	return info, true
}

// onStateChanged runs inside the watch hub's lock; it must only hand work
// off, never take the engine lock.
func (e *Engine) onStateChanged(targetID, qid string, old, next domain.PlayerState) {
	if old != domain.StatePlaying || next != domain.StateIdle {
		return
	}
	e.pool.Submit("queue_advance", func() error {
		e.mu.Lock()
		q := e.queues[targetID]
		if q == nil || q.id != qid {
			e.mu.Unlock()
			return nil
		}
		retired := e.advanceLocked(q)
		e.mu.Unlock()
		if retired {
			return nil
		}
		return e.playCurrent(context.Background(), targetID, qid)
	})
}

// playCurrent dispatches the track at the queue's position, skipping
// malformed entries and treating dispatch failures as finished tracks. Both
// skip paths are bounded by the play-order length so a fully broken queue
// retires instead of spinning; the bound is only enforced when the current
// entry is itself unplayable, so a playable track reached after a wrap
// reshuffle still dispatches. Dispatch happens outside the engine lock; the
// queue id fences results from retired or replaced queues.
func (e *Engine) playCurrent(ctx context.Context, targetID, qid string) error {
	skips := 0
	failures := 0

	for {
		e.mu.Lock()
		q := e.queues[targetID]
		if q == nil || q.id != qid {
			e.mu.Unlock()
			return nil
		}
		bound := len(q.order)
		if failures >= bound {
			e.retireLocked(q)
			e.mu.Unlock()
			return domain.NewError(domain.CodeDispatchFailed,
				fmt.Sprintf("no playable tracks left for %q", targetID))
		}

		track := q.order[q.pos]
		if track.ID == "" {
			if skips >= bound {
				e.retireLocked(q)
				e.mu.Unlock()
				return domain.NewError(domain.CodeDispatchFailed,
					fmt.Sprintf("no playable tracks left for %q", targetID))
			}
			skips++
			if e.advanceLocked(q) {
				e.mu.Unlock()
				return nil
			}
			e.mu.Unlock()
			continue
		}

		hints := domain.PlaybackHints{
			Title:        track.Title,
			Artist:       track.Artist,
			ThumbnailURL: track.ThumbnailURL,
		}
		opts := dispatch.PlayOptions{
			PlaylistID:     q.playlistID,
			PreferMusicApp: q.preferMusic,
		}
		nextID := e.peekNextIDLocked(q)
		e.mu.Unlock()

		err := e.dispatcher.Play(ctx, targetID, track.ID, hints, opts)
		if err == nil {
			if nextID != "" && e.prefetcher != nil {
				e.pool.Submit("prefetch_next", func() error {
					e.prefetcher.Prefetch(context.Background(), nextID)
					return nil
				})
			}
			return nil
		}

		e.logger.Warn("track dispatch failed, advancing", "target", targetID, "track", track.ID, "err", err)
		failures++

		e.mu.Lock()
		q = e.queues[targetID]
		if q == nil || q.id != qid {
			e.mu.Unlock()
			return nil
		}
		retired := e.advanceLocked(q)
		e.mu.Unlock()
		if retired {
			return nil
		}
	}
}

// advanceLocked steps the queue forward one position, applying any playback
// mode change first and the mode's wrap rule at the end. Returns true when
// the queue retired. Called with e.mu held.
func (e *Engine) advanceLocked(q *playbackQueue) bool {
	mode := e.settings.PlaybackMode()
	if mode != q.appliedMode {
		e.restructureLocked(q, mode)
	}

	q.pos++
	if q.pos < len(q.order) {
		return false
	}

	switch mode {
	case domain.ModeOnce:
		e.retireLocked(q)
		return true
	case domain.ModeShuffle:
		q.order = e.shuffled(q.original)
		q.pos = 0
	default:
		q.pos = 0
	}
	return false
}

// restructureLocked rebuilds the play order for a mode switched mid-queue.
// Switching to shuffle keeps the current track at position 0 and shuffles
// the remainder, excluding the current track by id; a current track whose id
// is absent from the original list excludes nothing. Switching to an ordered
// mode returns to the original order at the current track's position,
// falling back to 0 when the id cannot be located.
func (e *Engine) restructureLocked(q *playbackQueue, mode domain.PlaybackMode) {
	var current domain.Track
	if q.pos >= 0 && q.pos < len(q.order) {
		current = q.order[q.pos]
	}

	if mode == domain.ModeShuffle {
		rest := make([]domain.Track, 0, len(q.original))
		excluded := false
		for _, track := range q.original {
			if !excluded && current.ID != "" && track.ID == current.ID {
				excluded = true
				continue
			}
			rest = append(rest, track)
		}
		e.shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		q.order = append([]domain.Track{current}, rest...)
		q.pos = 0
	} else {
		q.order = append([]domain.Track(nil), q.original...)
		q.pos = 0
		for i, track := range q.order {
			if current.ID != "" && track.ID == current.ID {
				q.pos = i
				break
			}
		}
	}
	q.appliedMode = mode
}

// peekNextIDLocked returns the id of the track that would play after the
// current one, without mutating the queue. In once mode nothing follows the
// final track, so there is nothing worth prefetching. Called with e.mu held.
func (e *Engine) peekNextIDLocked(q *playbackQueue) string {
	if len(q.order) < 2 {
		return ""
	}
	next := q.pos + 1
	if next >= len(q.order) {
		if e.settings.PlaybackMode() == domain.ModeOnce {
			return ""
		}
		next = 0
	}
	return q.order[next].ID
}

// retireLocked releases the queue's subscription and removes it. Called
// with e.mu held.
func (e *Engine) retireLocked(q *playbackQueue) {
	if q.unsubscribe != nil {
		q.unsubscribe()
		q.unsubscribe = nil
	}
	if e.queues[q.targetID] == q {
		delete(e.queues, q.targetID)
	}
	e.logger.Debug("queue retired", "target", q.targetID)
}

func (e *Engine) shuffled(tracks []domain.Track) []domain.Track {
	order := append([]domain.Track(nil), tracks...)
	e.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}
