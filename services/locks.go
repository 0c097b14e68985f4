package services

import "sync"

// TableLocks serializes check-then-act writes per table. Admission
// (conflict check + insert) and table deletion (active-booking check +
// delete) take the same lock, so neither can race the other on one
// table. Locks are never removed; the set of tables is small.
type TableLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewTableLocks() *TableLocks {
	return &TableLocks{locks: make(map[int]*sync.Mutex)}
}

// Acquire locks the given table and returns its unlock function.
func (tl *TableLocks) Acquire(tableID int) func() {
	tl.mu.Lock()
	lock, ok := tl.locks[tableID]
	if !ok {
		lock = &sync.Mutex{}
		tl.locks[tableID] = lock
	}
	tl.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
