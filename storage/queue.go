package storage

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// Queue is the crawl frontier: a FIFO of pending targets plus the set of
// URLs already selected for fetching.
//
// Enqueue never filters. The visited set is consulted only through
// MarkVisited, which the engine calls when it pulls a target into a batch,
// so the same URL may sit in the queue several times.
type Queue interface {
	Enqueue(ctx context.Context, t Target) error
	// DequeueBatch removes up to n targets from the front. It never blocks and
	// returns an empty slice when nothing is pending.
	DequeueBatch(ctx context.Context, n int) ([]Target, error)
	// MarkVisited adds u to the visited set and reports whether it was new.
	MarkVisited(ctx context.Context, u string) (bool, error)
	Len(ctx context.Context) (int, error)
	// Visited returns the normalized visited URLs in sorted order.
	Visited(ctx context.Context) ([]string, error)
	Close() error
}

// normalizeURL builds the visited-set key for a URL.
func normalizeURL(urlStr string) (string, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		query := u.Query()

		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var parts []string
		for _, k := range keys {
			vals := query[k]
			sort.Strings(vals)
			for _, v := range vals {
				parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(parts, "&")
	}

	return u.String(), nil
}
