package storage

import "fmt"

// Target is a URL waiting to be crawled. It is a value type and is never
// mutated once created.
type Target struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
	// Parent is the URL of the page that linked here, empty for the seed.
	// Look it up in a DiscoveryLog to walk the discovery path.
	Parent string `json:"parent,omitempty"`
}

// NewSeed returns the depth-0 target for a crawl.
func NewSeed(u string) Target {
	return Target{URL: u}
}

func (t Target) IsSeed() bool {
	return t.Parent == ""
}

func (t Target) String() string {
	parent := t.Parent
	if parent == "" {
		parent = "-"
	}
	return fmt.Sprintf("(%s, depth=%d, parent=%s)", t.URL, t.Depth, parent)
}
