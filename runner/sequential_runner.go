package runner

import (
	"context"
	"fmt"

	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/storage"
)

// SequentialRunner fetches one target at a time and enqueues its links
// before taking the next. It visits pages in the same order as a
// BatchRunner with a batch size of one.
type SequentialRunner struct {
	*engine
}

func NewSequentialRunner(cfg crawler.Config, opts ...RunnerOption) (*SequentialRunner, error) {
	e, err := newEngine(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &SequentialRunner{engine: e}, nil
}

func (r *SequentialRunner) Run(ctx context.Context, seed string, f crawler.Fetcher, q storage.Queue) (*crawler.Summary, error) {
	return r.run(ctx, seed, f, q, func(ctx context.Context, summary *crawler.Summary) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			next, err := q.DequeueBatch(ctx, 1)
			if err != nil {
				return fmt.Errorf("failed to dequeue target: %w", err)
			}
			if len(next) == 0 {
				return nil
			}
			summary.Rounds++

			fresh, err := r.claim(ctx, q, next, summary)
			if err != nil {
				return err
			}
			for _, t := range fresh {
				body, fetchErr := r.fetch(ctx, f, t)
				if err := r.complete(ctx, q, t, body, fetchErr, summary); err != nil {
					return err
				}
			}
		}
	})
}
