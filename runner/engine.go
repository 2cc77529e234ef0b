package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/links"
	"github.com/will-x86/bfscrawl/logger"
	"github.com/will-x86/bfscrawl/storage"
)

// engine holds what both runners share: the frontier protocol, extraction,
// depth filtering and bookkeeping. Only the control goroutine touches it.
type engine struct {
	maxDepth     int
	fetchTimeout time.Duration
	extractor    *links.Extractor
	linkPolicy   LinkPolicy
	observer     crawler.Observer
	discovery    storage.DiscoveryLog
	logger       logger.Logger
}

type RunnerOption func(*engine)

func WithLinkPolicy(policy LinkPolicy) RunnerOption {
	return func(e *engine) {
		e.linkPolicy = policy
	}
}

func WithLogger(log logger.Logger) RunnerOption {
	return func(e *engine) {
		e.logger = log
	}
}

// WithObserver sets where crawl events go. When no extractor is given the
// default extractor reports insecure links to the same observer.
func WithObserver(o crawler.Observer) RunnerOption {
	return func(e *engine) {
		e.observer = o
	}
}

func WithExtractor(x *links.Extractor) RunnerOption {
	return func(e *engine) {
		e.extractor = x
	}
}

func WithDiscoveryLog(d storage.DiscoveryLog) RunnerOption {
	return func(e *engine) {
		e.discovery = d
	}
}

func newEngine(cfg crawler.Config, opts []RunnerOption) (*engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		maxDepth:     cfg.MaxDepth,
		fetchTimeout: cfg.FetchTimeout,
		linkPolicy:   PolicyAllowAll,
		logger:       logger.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.observer == nil {
		e.observer = crawler.NewLogObserver(e.logger)
	}
	if e.extractor == nil {
		e.extractor = links.NewExtractor(links.WithObserver(e.observer))
	}
	if e.discovery == nil {
		e.discovery = storage.NewMemoryDiscoveryLog()
	}

	return e, nil
}

// run is the state machine shared by both modes. drain performs the
// DRAINING phase and returns when the frontier is empty.
func (e *engine) run(ctx context.Context, seed string, f crawler.Fetcher, q storage.Queue,
	drain func(context.Context, *crawler.Summary) error) (*crawler.Summary, error) {

	if seed == "" {
		return nil, &crawler.ConfigError{Field: "seed", Reason: "must not be empty"}
	}

	start := time.Now()
	summary := &crawler.Summary{RunID: uuid.NewString(), Seed: seed}
	defer func() {
		summary.Elapsed = time.Since(start)
		e.observer.Finished(*summary)
	}()

	e.observer.RunStarted(summary.RunID, seed)

	root := storage.NewSeed(seed)
	if err := e.linkPolicy.Initialize(root); err != nil {
		return summary, fmt.Errorf("failed to initialize link policy: %w", err)
	}

	// FETCHING_SEED: one synchronous request, outside any batch.
	fresh, err := e.claim(ctx, q, []storage.Target{root}, summary)
	if err != nil {
		return summary, err
	}
	if len(fresh) == 1 {
		body, fetchErr := e.fetch(ctx, f, root)
		if err := e.complete(ctx, q, root, body, fetchErr, summary); err != nil {
			return summary, err
		}
	} else {
		e.logger.Info("Seed %s already visited, resuming pending frontier", seed)
	}

	if err := drain(ctx, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// claim runs MarkVisited over a dequeued batch in FIFO order and returns the
// targets that should be fetched.
func (e *engine) claim(ctx context.Context, q storage.Queue, batch []storage.Target, summary *crawler.Summary) ([]storage.Target, error) {
	fresh := make([]storage.Target, 0, len(batch))
	for _, t := range batch {
		isNew, err := q.MarkVisited(ctx, t.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to mark %s visited: %w", t.URL, err)
		}
		if !isNew {
			summary.Skipped++
			e.observer.AlreadyVisited(t)
			continue
		}

		if t.Depth < summary.MaxDepth {
			e.logger.Error("Frontier order violated: %s at depth %d after depth %d", t.URL, t.Depth, summary.MaxDepth)
		}
		if t.Depth > summary.MaxDepth {
			summary.MaxDepth = t.Depth
		}

		summary.Visited++
		e.discovery.Record(t)
		e.observer.VisitStarted(t)
		fresh = append(fresh, t)
	}
	return fresh, nil
}

// fetch is the single place a target's body is requested. It is also where a
// retry policy would go.
func (e *engine) fetch(ctx context.Context, f crawler.Fetcher, t storage.Target) (string, error) {
	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}

	body, err := f.Fetch(ctx, t.URL)
	if err != nil {
		var fetchErr *crawler.FetchError
		if !errors.As(err, &fetchErr) {
			err = &crawler.FetchError{URL: t.URL, Err: err}
		}
		return "", err
	}
	return body, nil
}

// complete handles one finished fetch: failures are recorded and dropped,
// successes are extracted and their children enqueued.
func (e *engine) complete(ctx context.Context, q storage.Queue, t storage.Target, body string, fetchErr error, summary *crawler.Summary) error {
	if fetchErr != nil {
		summary.Failed++
		e.observer.FetchFailed(t, fetchErr)
		return nil
	}

	children, err := e.extractor.Extract(t, body)
	if err != nil {
		e.logger.Warn("No links taken from %s: %v", t.URL, err)
		return nil
	}
	summary.Discovered += len(children)

	return e.enqueue(ctx, q, t, children, summary)
}

func (e *engine) enqueue(ctx context.Context, q storage.Queue, parent storage.Target, children []storage.Target, summary *crawler.Summary) error {
	for _, child := range children {
		if child.Depth > e.maxDepth {
			continue
		}
		if !e.linkPolicy.ShouldEnqueue(parent, child.URL) {
			continue
		}
		if err := q.Enqueue(ctx, child); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", child.URL, err)
		}
		summary.Enqueued++
	}
	return nil
}
