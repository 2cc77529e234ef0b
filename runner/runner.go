package runner

import (
	"context"

	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/storage"
)

// Runner crawls breadth-first from seed until the frontier is empty.
type Runner interface {
	Run(ctx context.Context, seed string, f crawler.Fetcher, q storage.Queue) (*crawler.Summary, error)
}

// New builds the runner selected by cfg.Mode, batch mode when unset.
func New(cfg crawler.Config, opts ...RunnerOption) (Runner, error) {
	if cfg.Mode == crawler.ModeSequential {
		return NewSequentialRunner(cfg, opts...)
	}
	return NewBatchRunner(cfg, opts...)
}
