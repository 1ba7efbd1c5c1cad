package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestKeyedMutexLockerExcludesSameUser(t *testing.T) {
	locker := NewKeyedMutexLocker()
	userID := uuid.New()

	release, err := locker.Acquire(context.Background(), userID)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := locker.Acquire(context.Background(), userID)
		if err != nil {
			t.Errorf("second Acquire: %v", err)
			return
		}
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire succeeded while lock held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(1 * time.Second):
		t.Fatalf("second acquire never proceeded after release")
	}
}

func TestKeyedMutexLockerIndependentUsers(t *testing.T) {
	locker := NewKeyedMutexLocker()

	releaseA, err := locker.Acquire(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Acquire A: %v", err)
	}
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := locker.Acquire(context.Background(), uuid.New())
		if err != nil {
			t.Errorf("Acquire B: %v", err)
			return
		}
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatalf("different users must not block each other")
	}
}

func TestKeyedMutexLockerAcquireCancellation(t *testing.T) {
	locker := NewKeyedMutexLocker()
	userID := uuid.New()

	release, err := locker.Acquire(context.Background(), userID)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, userID); err == nil {
		t.Fatalf("expected context error while lock held")
	}

	release()

	// The abandoned waiter must not leave the lock stuck.
	done := make(chan struct{})
	go func() {
		r, err := locker.Acquire(context.Background(), userID)
		if err != nil {
			t.Errorf("Acquire after cancel: %v", err)
			return
		}
		r()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatalf("lock stuck after cancelled acquire")
	}
}

func TestKeyedMutexLockerStress(t *testing.T) {
	locker := NewKeyedMutexLocker()
	userID := uuid.New()

	var inside int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), userID)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside != 1 {
				t.Errorf("mutual exclusion violated: %d holders", inside)
			}
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
}
