// Package links pulls anchors out of fetched pages and turns the followable
// ones into child targets. Plain http links are only reported by default;
// enable following them with WithFollowInsecure.
package links

import (
	"net/url"
	"strings"

	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/storage"
)

const (
	insecurePrefix = "http:"
	securePrefix   = "https:"
	rootPrefix     = "/"
)

// Extractor turns a fetched page into child targets.
//
// Only https links and hrefs starting with "/" are followed. The latter
// includes protocol-relative hrefs such as "//other.host/x", which resolve
// against the page's scheme and may leave its host; a LinkPolicy is the
// place to keep a crawl on one site.
//
// Plain http links are reported to the observer through InsecureLink and
// dropped by default. Pass WithFollowInsecure(true) to follow them as well.
// Everything else (mailto:, javascript:, fragments, paths relative to the
// current directory) is dropped silently. No deduplication happens here.
type Extractor struct {
	parser         AnchorParser
	observer       crawler.Observer
	followInsecure bool
}

type ExtractorOption func(*Extractor)

func WithParser(p AnchorParser) ExtractorOption {
	return func(e *Extractor) {
		e.parser = p
	}
}

func WithObserver(o crawler.Observer) ExtractorOption {
	return func(e *Extractor) {
		e.observer = o
	}
}

// WithFollowInsecure makes the extractor follow plain http links instead of
// only reporting them.
func WithFollowInsecure(follow bool) ExtractorOption {
	return func(e *Extractor) {
		e.followInsecure = follow
	}
}

func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		parser:   HTMLParser{},
		observer: crawler.NopObserver{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract returns the accepted links of body as targets one level below root.
func (e *Extractor) Extract(root storage.Target, body string) ([]storage.Target, error) {
	base, err := url.Parse(root.URL)
	if err != nil {
		return nil, &crawler.ParseError{URL: root.URL, Err: err}
	}

	hrefs, err := e.parser.Anchors(body)
	if err != nil {
		return nil, &crawler.ParseError{URL: root.URL, Err: err}
	}

	children := make([]storage.Target, 0, len(hrefs))
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}

		insecure := hasPrefixFold(href, insecurePrefix)
		if insecure {
			e.observer.InsecureLink(root, href)
		}

		if !e.accept(href, insecure) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}

		children = append(children, storage.Target{
			URL:    base.ResolveReference(ref).String(),
			Depth:  root.Depth + 1,
			Parent: root.URL,
		})
	}

	return children, nil
}

func (e *Extractor) accept(href string, insecure bool) bool {
	switch {
	case hasPrefixFold(href, securePrefix):
		return true
	case strings.HasPrefix(href, rootPrefix):
		return true
	case insecure:
		return e.followInsecure
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
