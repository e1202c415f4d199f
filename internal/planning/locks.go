package planning

import (
	"sync"

	"github.com/dayfold/dayfold/internal/types"
)

// dayLocks serializes mutations per (owner, date) and, separately,
// commit-plus-delivery per owner. Locks are never reclaimed; the key
// space is bounded by owners x days actually touched in a process
// lifetime. When both levels are needed the day lock is taken first.
type dayLocks struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	owners map[string]*sync.Mutex
}

func newDayLocks() *dayLocks {
	return &dayLocks{
		locks:  make(map[string]*sync.Mutex),
		owners: make(map[string]*sync.Mutex),
	}
}

// lock acquires the mutex for one owner-day and returns its release func.
func (l *dayLocks) lock(ownerID string, date types.Date) func() {
	key := ownerID + "|" + date.String()

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lockOwner acquires the owner-wide mutex and returns its release func.
// Holding it from the transaction commit through event delivery keeps
// delivery order equal to commit order for one owner's events.
func (l *dayLocks) lockOwner(ownerID string) func() {
	l.mu.Lock()
	m, ok := l.owners[ownerID]
	if !ok {
		m = &sync.Mutex{}
		l.owners[ownerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
