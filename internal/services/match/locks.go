package match

import (
	"sync"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// lockTable hands out one mutex per match id so that a single match's
// transitions are strictly serialized while independent matches progress in
// parallel. Entries are dropped once a match reaches a terminal state.
type lockTable struct {
	mu    sync.Mutex
	locks map[model.MatchID]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[model.MatchID]*sync.Mutex)}
}

// acquire locks the mutex for the given match id and returns its unlock func
func (t *lockTable) acquire(id model.MatchID) func() {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// forget drops the lock entry for a match that has reached a terminal state.
// Callers must still hold the lock; late arrivals that raced for the old
// mutex will find the match terminal and bail out.
func (t *lockTable) forget(id model.MatchID) {
	t.mu.Lock()
	delete(t.locks, id)
	t.mu.Unlock()
}
