package app

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestIssueLocks_SerializesSameIssue(t *testing.T) {
	locks := newIssueLocks()
	var active, peak int32

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak holders = %d, want 1", peak)
	}
	if locks.size() != 0 {
		t.Errorf("size() = %d, want 0 after release", locks.size())
	}
}

func TestIssueLocks_DifferentIssuesDoNotBlock(t *testing.T) {
	locks := newIssueLocks()

	unlockA := locks.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(2)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()

	if locks.size() != 0 {
		t.Errorf("size() = %d, want 0", locks.size())
	}
}
