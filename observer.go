package crawler

import (
	"github.com/will-x86/bfscrawl/logger"
	"github.com/will-x86/bfscrawl/storage"
)

// Observer receives crawl progress events. All methods are called from the
// runner's control goroutine, never concurrently.
type Observer interface {
	RunStarted(runID, seed string)
	VisitStarted(t storage.Target)
	AlreadyVisited(t storage.Target)
	InsecureLink(from storage.Target, href string)
	FetchFailed(t storage.Target, err error)
	Finished(s Summary)
}

// NopObserver ignores every event. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) RunStarted(runID, seed string)                 {}
func (NopObserver) VisitStarted(t storage.Target)                 {}
func (NopObserver) AlreadyVisited(t storage.Target)               {}
func (NopObserver) InsecureLink(from storage.Target, href string) {}
func (NopObserver) FetchFailed(t storage.Target, err error)       {}
func (NopObserver) Finished(s Summary)                            {}

// LogObserver writes events to a logger.
type LogObserver struct {
	log logger.Logger
}

func NewLogObserver(log logger.Logger) *LogObserver {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) RunStarted(runID, seed string) {
	o.log.Info("Starting crawl %s from %s", runID, seed)
}

func (o *LogObserver) VisitStarted(t storage.Target) {
	o.log.Info("Visiting %s", t)
}

func (o *LogObserver) AlreadyVisited(t storage.Target) {
	o.log.Debug("Already visited %s", t.URL)
}

func (o *LogObserver) InsecureLink(from storage.Target, href string) {
	o.log.Warn("Found non-encrypted link %s on %s", href, from.URL)
}

func (o *LogObserver) FetchFailed(t storage.Target, err error) {
	o.log.Error("Failed to fetch %s: %v", t.URL, err)
}

func (o *LogObserver) Finished(s Summary) {
	o.log.Info("Crawl %s took %.3f seconds: visited=%d skipped=%d failed=%d rounds=%d max_depth=%d",
		s.RunID, s.Elapsed.Seconds(), s.Visited, s.Skipped, s.Failed, s.Rounds, s.MaxDepth)
}

// MultiObserver fans every event out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) RunStarted(runID, seed string) {
	for _, o := range m {
		o.RunStarted(runID, seed)
	}
}

func (m MultiObserver) VisitStarted(t storage.Target) {
	for _, o := range m {
		o.VisitStarted(t)
	}
}

func (m MultiObserver) AlreadyVisited(t storage.Target) {
	for _, o := range m {
		o.AlreadyVisited(t)
	}
}

func (m MultiObserver) InsecureLink(from storage.Target, href string) {
	for _, o := range m {
		o.InsecureLink(from, href)
	}
}

func (m MultiObserver) FetchFailed(t storage.Target, err error) {
	for _, o := range m {
		o.FetchFailed(t, err)
	}
}

func (m MultiObserver) Finished(s Summary) {
	for _, o := range m {
		o.Finished(s)
	}
}
