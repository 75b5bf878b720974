package friends

import (
	"sort"
	"sync"
)

// userLocks hands out one mutex per user id so operations on a user's
// pending-request list and friend set are serialized without a global lock.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *userLocks) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lockPair locks both users' mutexes in a canonical order so two pair
// operations can never deadlock against each other. The returned func
// releases both.
func (l *userLocks) lockPair(a, b string) func() {
	ids := []string{a, b}
	sort.Strings(ids)

	first := l.get(ids[0])
	first.Lock()
	if ids[0] == ids[1] {
		return first.Unlock
	}
	second := l.get(ids[1])
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
