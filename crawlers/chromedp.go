package crawlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/logger"
)

type ChromeDPOptions struct {
	Logger   logger.Logger
	Headless bool
}

// ChromeDPFetcher loads pages in a headless browser and returns the rendered
// document, so links inserted by scripts are visible to the extractor. Each
// Fetch opens its own tab in one shared browser.
type ChromeDPFetcher struct {
	logger   logger.Logger
	headless bool

	once       sync.Once
	browserCtx context.Context
	startErr   error
	cancel     context.CancelFunc
}

func NewChromeDPFetcher(opts ChromeDPOptions) *ChromeDPFetcher {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &ChromeDPFetcher{
		logger:   opts.Logger,
		headless: opts.Headless,
	}
}

// browser starts Chrome on first use. The browser outlives any single fetch,
// so it is not tied to a request context.
func (f *ChromeDPFetcher) browser() (context.Context, error) {
	f.once.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", f.headless),
		)
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		f.cancel = func() {
			cancelBrowser()
			cancelAlloc()
		}

		if err := chromedp.Run(browserCtx); err != nil {
			f.startErr = fmt.Errorf("failed to start browser: %w", err)
			return
		}
		f.browserCtx = browserCtx
		f.logger.Debug("Browser started (headless=%v)", f.headless)
	})
	return f.browserCtx, f.startErr
}

func (f *ChromeDPFetcher) Fetch(ctx context.Context, u string) (string, error) {
	browserCtx, err := f.browser()
	if err != nil {
		return "", &crawler.FetchError{URL: u, Err: err}
	}

	f.logger.Debug("Rendering %s", u)

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	// Stop the tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var body string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(u),
		chromedp.OuterHTML("html", &body, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &crawler.FetchError{URL: u, Err: fmt.Errorf("render failed: %w", err)}
	}

	return body, nil
}

// Close shuts the browser down.
func (f *ChromeDPFetcher) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}
