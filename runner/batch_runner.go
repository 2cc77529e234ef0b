package runner

import (
	"context"
	"fmt"

	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/storage"
	"golang.org/x/sync/errgroup"
)

// BatchRunner drains the frontier in rounds of up to batchSize targets. The
// fetches of a round run concurrently and the round waits for all of them
// before any links are extracted, so round k+1 only ever sees the frontier
// as round k left it.
type BatchRunner struct {
	*engine
	batchSize int
}

func NewBatchRunner(cfg crawler.Config, opts ...RunnerOption) (*BatchRunner, error) {
	e, err := newEngine(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &BatchRunner{engine: e, batchSize: cfg.BatchSize}, nil
}

func (r *BatchRunner) Run(ctx context.Context, seed string, f crawler.Fetcher, q storage.Queue) (*crawler.Summary, error) {
	return r.run(ctx, seed, f, q, func(ctx context.Context, summary *crawler.Summary) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			batch, err := q.DequeueBatch(ctx, r.batchSize)
			if err != nil {
				return fmt.Errorf("failed to dequeue batch: %w", err)
			}
			if len(batch) == 0 {
				r.logger.Debug("Frontier empty after %d rounds", summary.Rounds)
				return nil
			}
			summary.Rounds++

			fresh, err := r.claim(ctx, q, batch, summary)
			if err != nil {
				return err
			}

			results := r.fetchAll(ctx, f, fresh)
			for i, t := range fresh {
				if err := r.complete(ctx, q, t, results[i].body, results[i].err, summary); err != nil {
					return err
				}
			}
		}
	})
}

type fetchResult struct {
	body string
	err  error
}

// fetchAll fetches every target concurrently and blocks until all are done.
// results[i] always belongs to targets[i]. A failed fetch never cancels its
// siblings.
func (r *BatchRunner) fetchAll(ctx context.Context, f crawler.Fetcher, targets []storage.Target) []fetchResult {
	results := make([]fetchResult, len(targets))

	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			body, err := r.fetch(ctx, f, t)
			results[i] = fetchResult{body: body, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
