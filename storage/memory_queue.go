package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryQueue struct {
	pending []Target
	head    int
	visited map[string]struct{}
	mu      sync.Mutex
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		visited: make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Close() error {
	return nil
}

func (q *MemoryQueue) Enqueue(ctx context.Context, t Target) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, t)
	return nil
}

func (q *MemoryQueue) DequeueBatch(ctx context.Context, n int) ([]Target, error) {
	if n < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", n)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	available := len(q.pending) - q.head
	if available > n {
		available = n
	}

	batch := make([]Target, available)
	copy(batch, q.pending[q.head:q.head+available])
	q.head += available

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 0 && q.head*2 >= len(q.pending) {
		q.pending = append(q.pending[:0:0], q.pending[q.head:]...)
		q.head = 0
	}

	return batch, nil
}

func (q *MemoryQueue) MarkVisited(ctx context.Context, u string) (bool, error) {
	key, err := normalizeURL(u)
	if err != nil {
		return false, fmt.Errorf("failed to normalize URL: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, seen := q.visited[key]; seen {
		return false, nil
	}
	q.visited[key] = struct{}{}
	return true, nil
}

func (q *MemoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending) - q.head, nil
}

func (q *MemoryQueue) Visited(ctx context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	urls := make([]string, 0, len(q.visited))
	for u := range q.visited {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}
