package app

import "sync"

// issueLocks serializes work on one issue number within this process.
// Entries are dropped once nobody holds or waits for them.
type issueLocks struct {
	mu    sync.Mutex
	locks map[int]*issueLock
}

type issueLock struct {
	mu   sync.Mutex
	refs int
}

func newIssueLocks() *issueLocks {
	return &issueLocks{locks: make(map[int]*issueLock)}
}

// Lock blocks until the caller owns issueNumber and returns the unlock func.
func (l *issueLocks) Lock(issueNumber int) func() {
	l.mu.Lock()
	lock, ok := l.locks[issueNumber]
	if !ok {
		lock = &issueLock{}
		l.locks[issueNumber] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, issueNumber)
		}
		l.mu.Unlock()
	}
}

func (l *issueLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
