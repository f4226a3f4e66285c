package pipeline

import (
	"testing"
	"time"
)

func TestThreadLocksCleanUpEntries(t *testing.T) {
	t.Parallel()

	locks := newThreadLocks()

	unlock := locks.lock("t-1")
	locks.mu.Lock()
	entries := len(locks.entries)
	locks.mu.Unlock()
	if entries != 1 {
		t.Fatalf("expected one entry while held, got %d", entries)
	}

	unlock()
	locks.mu.Lock()
	entries = len(locks.entries)
	locks.mu.Unlock()
	if entries != 0 {
		t.Fatalf("expected no entries after release, got %d", entries)
	}
}

func TestThreadLocksIndependentKeys(t *testing.T) {
	t.Parallel()

	locks := newThreadLocks()
	unlockA := locks.lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an independent key blocked")
	}
}

func TestThreadLocksSameKeyBlocks(t *testing.T) {
	t.Parallel()

	locks := newThreadLocks()
	unlock := locks.lock("t-1")

	acquired := make(chan struct{})
	go func() {
		second := locks.lock("t-1")
		second()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}
}
