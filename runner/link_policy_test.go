package runner

import (
	"testing"

	"github.com/will-x86/bfscrawl/storage"
)

var testParent = storage.Target{URL: "https://example.com/page", Depth: 1, Parent: "https://example.com/"}

func TestPolicyAllowAll(t *testing.T) {
	policy := PolicyAllowAll

	tests := []string{
		"https://example.com/other",
		"https://different.com/page",
		"http://insecure.com",
		"https://subdomain.example.com/path",
	}

	for _, targetURL := range tests {
		if !policy.ShouldEnqueue(testParent, targetURL) {
			t.Errorf("PolicyAllowAll should allow %q", targetURL)
		}
	}
}

func TestPolicyAllowNone(t *testing.T) {
	policy := PolicyAllowNone

	tests := []string{
		"https://example.com/other",
		"https://different.com/page",
	}

	for _, targetURL := range tests {
		if policy.ShouldEnqueue(testParent, targetURL) {
			t.Errorf("PolicyAllowNone should reject %q", targetURL)
		}
	}
}

func TestSameDomainPolicy(t *testing.T) {
	policy := NewSameDomainPolicy()
	if err := policy.Initialize(storage.NewSeed("https://Example.com/seed")); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	tests := []struct {
		targetURL string
		want      bool
	}{
		{"https://example.com/page2", true},
		{"https://EXAMPLE.com/page3", true},
		{"https://different.com/page", false},
		{"https://subdomain.example.com/page", false},
		{"://invalid", false},
	}

	for _, tt := range tests {
		got := policy.ShouldEnqueue(testParent, tt.targetURL)
		if got != tt.want {
			t.Errorf("ShouldEnqueue(%q) = %v, want %v", tt.targetURL, got, tt.want)
		}
	}
}

func TestSameDomainPolicy_NotInitialized(t *testing.T) {
	policy := NewSameDomainPolicy()
	if policy.ShouldEnqueue(testParent, "https://example.com/other") {
		t.Error("should reject all URLs before Initialize")
	}
}

func TestGlobPolicy(t *testing.T) {
	tests := []struct {
		name      string
		patterns  []string
		targetURL string
		want      bool
	}{
		{
			name:      "single pattern match",
			patterns:  []string{"example.com"},
			targetURL: "https://example.com/page2",
			want:      true,
		},
		{
			name:      "single pattern no match",
			patterns:  []string{"example.com"},
			targetURL: "https://different.com/page",
			want:      false,
		},
		{
			name:      "wildcard pattern",
			patterns:  []string{"*.example.com"},
			targetURL: "https://sub.example.com/page",
			want:      true,
		},
		{
			name:      "negation pattern",
			patterns:  []string{"*.com", "!bad.com"},
			targetURL: "https://bad.com/page",
			want:      false,
		},
		{
			name:      "negation doesn't match",
			patterns:  []string{"*.com", "!bad.com"},
			targetURL: "https://good.com/other",
			want:      true,
		},
		{
			name:      "multiple patterns",
			patterns:  []string{"example.com", "test.com"},
			targetURL: "https://test.com/page",
			want:      true,
		},
		{
			name:      "no patterns match",
			patterns:  []string{"example.com", "test.com"},
			targetURL: "https://other.com/page",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewGlobPolicy(tt.patterns...)
			got := policy.ShouldEnqueue(testParent, tt.targetURL)
			if got != tt.want {
				t.Errorf("ShouldEnqueue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxPerDomainPolicy(t *testing.T) {
	policy := NewMaxPerDomainPolicy(2)

	tests := []struct {
		targetURL string
		want      bool
	}{
		{"https://example.com/page2", true},
		{"https://example.com/page3", true},
		{"https://example.com/page4", false},
		{"https://different.com/page1", true},
		{"https://different.com/page2", true},
		{"https://different.com/page3", false},
	}

	for i, tt := range tests {
		got := policy.ShouldEnqueue(testParent, tt.targetURL)
		if got != tt.want {
			t.Errorf("test %d: ShouldEnqueue(%q) = %v, want %v", i, tt.targetURL, got, tt.want)
		}
	}

	if err := policy.Initialize(storage.NewSeed("https://example.com/")); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if !policy.ShouldEnqueue(testParent, "https://example.com/page5") {
		t.Error("Initialize should reset per-domain counts")
	}
}

func TestAllOf(t *testing.T) {
	policy := AllOf(NewGlobPolicy("*.com"), NewMaxPerDomainPolicy(1))
	if err := policy.Initialize(storage.NewSeed("https://example.com/")); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	tests := []struct {
		targetURL string
		want      bool
	}{
		{"https://example.com/a", true},
		{"https://example.com/b", false},
		{"https://example.org/a", false},
		{"https://other.com/a", true},
	}

	for _, tt := range tests {
		if got := policy.ShouldEnqueue(testParent, tt.targetURL); got != tt.want {
			t.Errorf("ShouldEnqueue(%q) = %v, want %v", tt.targetURL, got, tt.want)
		}
	}

	if AllOf() != PolicyAllowAll {
		t.Error("AllOf() with no policies should be PolicyAllowAll")
	}
}

func TestLinkPolicy_InvalidURLs(t *testing.T) {
	policies := []struct {
		name   string
		policy LinkPolicy
	}{
		{"AllowNone", PolicyAllowNone},
		{"SameDomain", NewSameDomainPolicy()},
		{"Glob", NewGlobPolicy("*.com")},
		{"MaxPerDomain", NewMaxPerDomainPolicy(10)},
	}

	invalidURLs := []string{
		"://invalid",
		"not-a-url",
		"",
	}

	for _, p := range policies {
		t.Run(p.name, func(t *testing.T) {
			if err := p.policy.Initialize(storage.NewSeed("https://example.com/")); err != nil {
				t.Fatalf("Initialize() error: %v", err)
			}
			for _, invalidURL := range invalidURLs {
				if p.policy.ShouldEnqueue(testParent, invalidURL) {
					t.Errorf("%s should reject invalid URL %q", p.name, invalidURL)
				}
			}
		})
	}
}
