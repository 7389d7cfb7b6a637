// Package watch polls device player state and fans out transitions to
// subscribers. One poll loop runs per watched device; the loop stops when
// its last subscriber leaves.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Second
)

// StateReader reads the current player state of one device.
type StateReader interface {
	PlayerState(ctx context.Context, targetID string) (domain.PlayerState, error)
}

// Callback receives a state transition. Callbacks run under the hub lock and
// must not block; hand real work off to a background pool.
type Callback func(old, next domain.PlayerState)

type watcher struct {
	cancel context.CancelFunc
	subs   map[int]Callback
	nextID int
	last   domain.PlayerState
}

type Hub struct {
	reader   StateReader
	interval time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	watchers map[string]*watcher
	closed   bool
}

func NewHub(reader StateReader, interval time.Duration, logger *log.Logger) *Hub {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = log.New(nil)
	}
	return &Hub{
		reader:   reader,
		interval: interval,
		logger:   logger,
		watchers: map[string]*watcher{},
	}
}

// Subscribe registers a callback for the target's state transitions and
// returns its unsubscribe function. Once unsubscribe returns, the callback
// will not be invoked again.
func (h *Hub) Subscribe(targetID string, cb Callback) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}
	}

	w, ok := h.watchers[targetID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		w = &watcher{
			cancel: cancel,
			subs:   map[int]Callback{},
			last:   domain.StateUnknown,
		}
		h.watchers[targetID] = w
		go h.poll(ctx, targetID, w)
	}

	id := w.nextID
	w.nextID++
	w.subs[id] = cb

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(w.subs, id)
		if len(w.subs) == 0 {
			w.cancel()
			if h.watchers[targetID] == w {
				delete(h.watchers, targetID)
			}
		}
	}
}

// Close stops every poll loop.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for target, w := range h.watchers {
		w.cancel()
		delete(h.watchers, target)
	}
}

func (h *Hub) poll(ctx context.Context, targetID string, w *watcher) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pollCtx, cancel := context.WithTimeout(ctx, defaultPollTimeout)
		state, err := h.reader.PlayerState(pollCtx, targetID)
		cancel()
		if err != nil {
			h.logger.Debug("state poll failed", "target", targetID, "err", err)
			continue
		}

		h.mu.Lock()
		if state != w.last {
			old := w.last
			w.last = state
			for _, cb := range w.subs {
				cb(old, state)
			}
		}
		h.mu.Unlock()
	}
}
