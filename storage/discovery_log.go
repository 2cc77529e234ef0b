package storage

import "sync"

// DiscoveryLog records every target the engine selects for fetching, keyed by
// its URL. Targets refer to their parent by URL, so the log is what turns a
// target back into the path that led to it.
type DiscoveryLog interface {
	// Record stores t unless its URL was already recorded.
	Record(t Target) bool
	Get(u string) (Target, bool)
	// Lineage returns u's target followed by each ancestor up to the seed.
	Lineage(u string) []Target
	Len() int
}

type MemoryDiscoveryLog struct {
	entries map[string]Target
	mu      sync.RWMutex
}

func NewMemoryDiscoveryLog() *MemoryDiscoveryLog {
	return &MemoryDiscoveryLog{
		entries: make(map[string]Target),
	}
}

func (l *MemoryDiscoveryLog) Record(t Target) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[t.URL]; ok {
		return false
	}
	l.entries[t.URL] = t
	return true
}

func (l *MemoryDiscoveryLog) Get(u string) (Target, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.entries[u]
	return t, ok
}

func (l *MemoryDiscoveryLog) Lineage(u string) []Target {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var chain []Target
	seen := make(map[string]bool)
	for u != "" && !seen[u] {
		t, ok := l.entries[u]
		if !ok {
			break
		}
		seen[u] = true
		chain = append(chain, t)
		u = t.Parent
	}
	return chain
}

func (l *MemoryDiscoveryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}
