package tasks

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsTask(t *testing.T) {
	p := NewPool(2, 8, nil)
	defer p.Close()

	done := make(chan struct{})
	if !p.Submit("unit", func() error {
		close(done)
		return nil
	}) {
		t.Fatal("Submit returned false")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	p := NewPool(1, 1, nil)
	defer p.Close()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the single queue slot.
	p.Submit("blocker", func() error { <-block; return nil })
	for i := 0; i < 50; i++ {
		if !p.Submit("filler", func() error { return nil }) {
			return
		}
	}
	t.Fatal("expected at least one drop with a full queue")
}

func TestTaskErrorDoesNotPropagate(t *testing.T) {
	p := NewPool(1, 8, nil)

	var ran atomic.Bool
	p.Submit("failing", func() error { return errors.New("boom") })
	p.Submit("after", func() error { ran.Store(true); return nil })
	p.Close()

	if !ran.Load() {
		t.Error("pool should keep running after a task error")
	}
}

func TestTaskPanicIsRecovered(t *testing.T) {
	p := NewPool(1, 8, nil)

	var ran atomic.Bool
	p.Submit("panicking", func() error { panic("boom") })
	p.Submit("after", func() error { ran.Store(true); return nil })
	p.Close()

	if !ran.Load() {
		t.Error("pool should survive a panicking task")
	}
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	p := NewPool(1, 8, nil)
	p.Close()

	if p.Submit("late", func() error { return nil }) {
		t.Error("Submit after Close should report the task dropped")
	}
	p.Close() // idempotent
}

func TestCloseDrainsQueue(t *testing.T) {
	p := NewPool(2, 16, nil)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		p.Submit("counted", func() error { count.Add(1); return nil })
	}
	p.Close()

	if got := count.Load(); got != 10 {
		t.Errorf("ran %d tasks, want 10", got)
	}
}
