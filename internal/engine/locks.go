package engine

import "sync"

// taskLocks hands out one mutex per task id. Entries are reference
// counted and dropped when the last holder unlocks.
type taskLocks struct {
	mu    sync.Mutex
	locks map[int64]*taskLock
}

type taskLock struct {
	mu   sync.Mutex
	refs int
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[int64]*taskLock)}
}

// lock blocks until the caller holds the mutex for id and returns the
// matching unlock function.
func (l *taskLocks) lock(id int64) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.locks[id]
	if !ok {
		tl = &taskLock{}
		l.locks[id] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()

	return func() {
		tl.mu.Unlock()

		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// size returns the number of live entries.
func (l *taskLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
