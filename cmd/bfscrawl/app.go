package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/config"
	"github.com/will-x86/bfscrawl/crawlers"
	"github.com/will-x86/bfscrawl/events"
	"github.com/will-x86/bfscrawl/links"
	"github.com/will-x86/bfscrawl/logger"
	"github.com/will-x86/bfscrawl/runner"
	"github.com/will-x86/bfscrawl/storage"
)

// app is one configured crawl: everything runCrawlCmd needs, plus what has to
// be closed afterwards.
type app struct {
	log     *logger.ZerologLogger
	runner  runner.Runner
	fetcher crawler.Fetcher
	queue   storage.Queue
	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, showProgress bool) (*app, error) {
	a := &app{}
	a.log = newLogger(cfg.Logging)
	a.closers = append(a.closers, a.log)

	queue, err := newQueue(ctx, cfg.Frontier)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.queue = queue
	a.closers = append(a.closers, queue)

	fetcher, closer := newFetcher(cfg.Fetcher, a.log)
	a.fetcher = fetcher
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	observers := crawler.MultiObserver{crawler.NewLogObserver(a.log)}
	if showProgress {
		observers = append(observers, newProgressObserver())
	}
	if cfg.Events.KafkaBroker != "" {
		k := events.NewKafkaObserver(cfg.Events.KafkaBroker, cfg.Events.KafkaTopic, a.log)
		observers = append(observers, k)
		a.closers = append(a.closers, k)
	}

	extractor := links.NewExtractor(
		links.WithParser(newParser(cfg.Links.Parser)),
		links.WithObserver(observers),
		links.WithFollowInsecure(cfg.Links.FollowInsecure),
	)

	r, err := runner.New(cfg.Crawl,
		runner.WithLogger(a.log),
		runner.WithObserver(observers),
		runner.WithExtractor(extractor),
		runner.WithLinkPolicy(newLinkPolicy(cfg.Links)),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = r

	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newLogger(cfg config.LoggingConfig) *logger.ZerologLogger {
	return logger.NewZerologLoggerWithOptions(logger.ZerologOptions{
		UseColor:   cfg.Color,
		Level:      cfg.Level,
		OutputFile: cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
}

func newQueue(ctx context.Context, cfg config.FrontierConfig) (storage.Queue, error) {
	switch cfg.Backend {
	case "sqlite":
		return storage.NewSQLiteQueue(storage.SQLiteQueueOptions{DBPath: cfg.SQLitePath})
	case "redis":
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = "bfscrawl:" + uuid.NewString()
		}
		return storage.NewRedisQueue(ctx, storage.RedisQueueOptions{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: prefix,
		})
	case "memory", "":
		return storage.NewMemoryQueue(), nil
	default:
		return nil, fmt.Errorf("unknown frontier backend %q", cfg.Backend)
	}
}

func newFetcher(cfg config.FetcherConfig, log logger.Logger) (crawler.Fetcher, io.Closer) {
	if cfg.Kind == "chromedp" {
		f := crawlers.NewChromeDPFetcher(crawlers.ChromeDPOptions{
			Logger:   log,
			Headless: cfg.Headless,
		})
		return f, f
	}

	return crawlers.NewHTTPFetcher(crawlers.HTTPOptions{
		Logger:       log,
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
		MaxBodySize:  cfg.MaxBodySize,
	}), nil
}

func newParser(name string) links.AnchorParser {
	if name == "goquery" {
		return links.GoqueryParser{}
	}
	return links.HTMLParser{}
}

func newLinkPolicy(cfg config.LinksConfig) runner.LinkPolicy {
	var policies []runner.LinkPolicy
	if cfg.SameDomain {
		policies = append(policies, runner.NewSameDomainPolicy())
	}
	if len(cfg.Allow) > 0 {
		policies = append(policies, runner.NewGlobPolicy(cfg.Allow...))
	}
	if cfg.MaxPerDomain > 0 {
		policies = append(policies, runner.NewMaxPerDomainPolicy(cfg.MaxPerDomain))
	}
	return runner.AllOf(policies...)
}
