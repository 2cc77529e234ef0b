package crawlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/logger"
)

type HTTPOptions struct {
	Logger       logger.Logger
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	// MaxBodySize caps how many bytes of a response are read.
	MaxBodySize int64
	// Client replaces the default client; Timeout and MaxRedirects are then ignored.
	Client *http.Client
}

// HTTPFetcher fetches pages with net/http. Responses with a status of 400 or
// above are reported as fetch errors.
type HTTPFetcher struct {
	logger      logger.Logger
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "bfscrawl/1.0"
	}
	if opts.MaxBodySize == 0 {
		opts.MaxBodySize = 10 * 1024 * 1024
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= opts.MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
				}
				return nil
			},
		}
	}

	return &HTTPFetcher{
		logger:      opts.Logger,
		client:      client,
		userAgent:   opts.UserAgent,
		maxBodySize: opts.MaxBodySize,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, u string) (string, error) {
	f.logger.Debug("GET %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &crawler.FetchError{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &crawler.FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodySize))
		return "", &crawler.FetchError{URL: u, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", &crawler.FetchError{URL: u, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return string(body), nil
}
