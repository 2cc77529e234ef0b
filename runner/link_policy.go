package runner

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/will-x86/bfscrawl/storage"
)

// LinkPolicy decides whether a discovered link may join the frontier. It is
// consulted after the depth bound, once per child in document order.
type LinkPolicy interface {
	ShouldEnqueue(parent storage.Target, targetURL string) bool
	// Initialize is called once per run with the seed before anything is fetched.
	Initialize(seed storage.Target) error
}

type allowAllPolicy struct{}

func (p *allowAllPolicy) ShouldEnqueue(parent storage.Target, targetURL string) bool {
	return true
}

func (p *allowAllPolicy) Initialize(seed storage.Target) error {
	return nil
}

type allowNonePolicy struct{}

func (p *allowNonePolicy) ShouldEnqueue(parent storage.Target, targetURL string) bool {
	return false
}

func (p *allowNonePolicy) Initialize(seed storage.Target) error {
	return nil
}

// sameDomainPolicy keeps the crawl on the seed's host.
type sameDomainPolicy struct {
	allowedHosts map[string]bool
}

func (p *sameDomainPolicy) ShouldEnqueue(parent storage.Target, targetURL string) bool {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return p.allowedHosts[strings.ToLower(parsed.Host)]
}

func (p *sameDomainPolicy) Initialize(seed storage.Target) error {
	parsed, err := url.Parse(seed.URL)
	if err != nil {
		return err
	}

	p.allowedHosts = map[string]bool{strings.ToLower(parsed.Host): true}
	return nil
}

type globPolicy struct {
	patterns []string
}

func (p *globPolicy) ShouldEnqueue(parent storage.Target, targetURL string) bool {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	targetHost := parsed.Host
	allowed := false

	for _, pattern := range p.patterns {
		if negPattern, found := strings.CutPrefix(pattern, "!"); found {
			if matchHost(targetHost, negPattern) {
				return false
			}
		} else if matchHost(targetHost, pattern) {
			allowed = true
		}
	}

	return allowed
}

func (p *globPolicy) Initialize(seed storage.Target) error {
	return nil
}

func matchHost(host, pattern string) bool {
	matched, err := filepath.Match(pattern, host)
	if err != nil {
		return false
	}
	return matched
}

type maxPerDomainPolicy struct {
	maxPerDomain int
	domainCounts map[string]int
	mu           sync.Mutex
}

func (p *maxPerDomainPolicy) ShouldEnqueue(parent storage.Target, targetURL string) bool {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := parsed.Host
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.domainCounts[host] >= p.maxPerDomain {
		return false
	}

	p.domainCounts[host]++
	return true
}

// Initialize resets the counters so a policy can be reused across runs.
func (p *maxPerDomainPolicy) Initialize(seed storage.Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.domainCounts = make(map[string]int)
	return nil
}

// allOfPolicy accepts a link only when every inner policy does.
type allOfPolicy []LinkPolicy

func (p allOfPolicy) ShouldEnqueue(parent storage.Target, targetURL string) bool {
	for _, inner := range p {
		if !inner.ShouldEnqueue(parent, targetURL) {
			return false
		}
	}
	return true
}

func (p allOfPolicy) Initialize(seed storage.Target) error {
	for _, inner := range p {
		if err := inner.Initialize(seed); err != nil {
			return err
		}
	}
	return nil
}

var (
	PolicyAllowAll  LinkPolicy = &allowAllPolicy{}
	PolicyAllowNone LinkPolicy = &allowNonePolicy{}
)

func NewSameDomainPolicy() LinkPolicy {
	return &sameDomainPolicy{allowedHosts: make(map[string]bool)}
}

func NewGlobPolicy(patterns ...string) LinkPolicy {
	return &globPolicy{
		patterns: patterns,
	}
}

func NewMaxPerDomainPolicy(maxPerDomain int) LinkPolicy {
	return &maxPerDomainPolicy{
		maxPerDomain: maxPerDomain,
		domainCounts: make(map[string]int),
	}
}

// AllOf combines policies. With no policies it allows everything.
func AllOf(policies ...LinkPolicy) LinkPolicy {
	if len(policies) == 0 {
		return PolicyAllowAll
	}
	if len(policies) == 1 {
		return policies[0]
	}
	return allOfPolicy(policies)
}
