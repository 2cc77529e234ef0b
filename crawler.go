package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves the body of a page. Implementations must be safe for
// concurrent use: the batch runner calls Fetch from one goroutine per target.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Summary describes a finished crawl run.
type Summary struct {
	RunID string
	Seed  string
	// Visited counts targets that passed MarkVisited and were fetched.
	Visited int
	// Skipped counts dequeued targets whose URL was already visited.
	Skipped int
	Failed  int
	// Discovered counts links accepted by the extractor, before depth filtering.
	Discovered int
	Enqueued   int
	Rounds     int
	// MaxDepth is the deepest level actually visited.
	MaxDepth int
	Elapsed  time.Duration
}
