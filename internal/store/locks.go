package store

import "sync"

// keyedLocks hands out one mutex per record key
type keyedLocks struct {
	mu    sync.Mutex
	byKey map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{byKey: make(map[string]*sync.Mutex)}
}

// lock blocks until key is free and returns the matching unlock
func (l *keyedLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.byKey[key]
	if !ok {
		m = &sync.Mutex{}
		l.byKey[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
