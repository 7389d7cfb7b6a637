package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

type scriptedReader struct {
	mu     sync.Mutex
	states map[string]domain.PlayerState
}

func newScriptedReader() *scriptedReader {
	return &scriptedReader{states: map[string]domain.PlayerState{}}
}

func (r *scriptedReader) set(target string, state domain.PlayerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[target] = state
}

func (r *scriptedReader) PlayerState(ctx context.Context, targetID string) (domain.PlayerState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[targetID]; ok {
		return state, nil
	}
	return domain.StateIdle, nil
}

type transition struct {
	old, next domain.PlayerState
}

func TestHubEmitsTransitions(t *testing.T) {
	reader := newScriptedReader()
	reader.set("tv", domain.StatePlaying)
	hub := NewHub(reader, 10*time.Millisecond, nil)
	defer hub.Close()

	events := make(chan transition, 8)
	unsub := hub.Subscribe("tv", func(old, next domain.PlayerState) {
		events <- transition{old, next}
	})
	defer unsub()

	waitFor := func(want transition) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case got := <-events:
				if got == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %+v", want)
			}
		}
	}

	waitFor(transition{domain.StateUnknown, domain.StatePlaying})
	reader.set("tv", domain.StateIdle)
	waitFor(transition{domain.StatePlaying, domain.StateIdle})
}

func TestHubNoCallbackAfterUnsubscribe(t *testing.T) {
	reader := newScriptedReader()
	reader.set("tv", domain.StatePlaying)
	hub := NewHub(reader, 10*time.Millisecond, nil)
	defer hub.Close()

	var mu sync.Mutex
	count := 0
	unsub := hub.Subscribe("tv", func(old, next domain.PlayerState) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	// Wait for the first transition, then unsubscribe.
	time.Sleep(100 * time.Millisecond)
	unsub()
	mu.Lock()
	after := count
	mu.Unlock()

	reader.set("tv", domain.StateIdle)
	reader.set("tv", domain.StatePlaying)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	final := count
	mu.Unlock()
	if final != after {
		t.Errorf("callbacks after unsubscribe: %d -> %d", after, final)
	}
}

func TestHubIndependentTargets(t *testing.T) {
	reader := newScriptedReader()
	reader.set("tv", domain.StatePlaying)
	reader.set("speaker", domain.StatePaused)
	hub := NewHub(reader, 10*time.Millisecond, nil)
	defer hub.Close()

	tvEvents := make(chan transition, 4)
	spkEvents := make(chan transition, 4)
	defer hub.Subscribe("tv", func(o, n domain.PlayerState) { tvEvents <- transition{o, n} })()
	defer hub.Subscribe("speaker", func(o, n domain.PlayerState) { spkEvents <- transition{o, n} })()

	select {
	case got := <-tvEvents:
		if got.next != domain.StatePlaying {
			t.Errorf("tv transition = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tv transition")
	}
	select {
	case got := <-spkEvents:
		if got.next != domain.StatePaused {
			t.Errorf("speaker transition = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no speaker transition")
	}
}
