package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/config"
	"github.com/will-x86/bfscrawl/runner"
	"github.com/will-x86/bfscrawl/storage"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	flagsWithShort := map[string]string{
		"config":     "c",
		"url":        "u",
		"depth":      "d",
		"batch-size": "b",
		"mode":       "m",
		"progress":   "p",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}

	for _, flag := range []string{"frontier", "sqlite-path", "redis-addr", "fetcher", "parser", "same-domain", "allow", "kafka-broker"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag %q to exist", flag)
		}
	}
}

func defaultConfig() *config.Config {
	return &config.Config{
		Crawl:    crawler.DefaultConfig(),
		Fetcher:  config.FetcherConfig{Kind: "http", Timeout: 30 * time.Second},
		Frontier: config.FrontierConfig{Backend: "memory", SQLitePath: "./data/frontier.db"},
		Links:    config.LinksConfig{Parser: "html"},
		Logging:  config.LoggingConfig{Level: "info"},
		Events:   config.EventsConfig{KafkaTopic: "bfscrawl-events"},
	}
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	err := cmd.ParseFlags([]string{
		"-d", "5",
		"--mode", "sequential",
		"--fetch-timeout", "3s",
		"--frontier", "sqlite",
		"--allow", "*.example.com,!bad.example.com",
		"--follow-insecure",
	})
	if err != nil {
		t.Fatalf("ParseFlags() error: %v", err)
	}

	cfg := defaultConfig()
	if err := applyFlags(cmd, cfg); err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}

	if cfg.Crawl.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want 5", cfg.Crawl.MaxDepth)
	}
	if cfg.Crawl.BatchSize != crawler.DefaultConfig().BatchSize {
		t.Errorf("BatchSize = %d, unset flag should keep the loaded value", cfg.Crawl.BatchSize)
	}
	if cfg.Crawl.Mode != crawler.ModeSequential {
		t.Errorf("Mode = %q", cfg.Crawl.Mode)
	}
	if cfg.Crawl.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.Crawl.FetchTimeout)
	}
	if cfg.Frontier.Backend != "sqlite" {
		t.Errorf("Frontier.Backend = %q", cfg.Frontier.Backend)
	}
	if len(cfg.Links.Allow) != 2 || cfg.Links.Allow[1] != "!bad.example.com" {
		t.Errorf("Links.Allow = %v", cfg.Links.Allow)
	}
	if !cfg.Links.FollowInsecure {
		t.Error("FollowInsecure = false")
	}
	if cfg.Fetcher.Headless {
		t.Error("Headless should keep the loaded value when the flag is not set")
	}
}

func TestSeedURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   []string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "positional", args: []string{"https://a.example/"}, want: "https://a.example/"},
		{name: "flag", flags: []string{"--url", "https://a.example/"}, want: "https://a.example/"},
		{name: "both agree", flags: []string{"-u", "https://a.example/"}, args: []string{"https://a.example/"}, want: "https://a.example/"},
		{name: "both differ", flags: []string{"-u", "https://a.example/"}, args: []string{"https://b.example/"}, wantErr: true},
		{name: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewRootCmd()
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatalf("ParseFlags() error: %v", err)
			}

			got, err := seedURL(cmd, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("seedURL() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("seedURL() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("seedURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeedURL_MissingIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := seedURL(NewRootCmd(), nil)
	var cfgErr *crawler.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("seedURL() error = %v, want *crawler.ConfigError", err)
	}
}

func TestNewLinkPolicy(t *testing.T) {
	t.Parallel()

	parent := storage.NewSeed("https://a.example/")

	tests := []struct {
		name   string
		cfg    config.LinksConfig
		target string
		want   bool
	}{
		{"none configured", config.LinksConfig{}, "https://elsewhere.example/", true},
		{"same domain keeps host", config.LinksConfig{SameDomain: true}, "https://a.example/x", true},
		{"same domain drops other host", config.LinksConfig{SameDomain: true}, "https://b.example/x", false},
		{"allow glob", config.LinksConfig{Allow: []string{"*.example"}}, "https://b.example/x", true},
		{"allow negation", config.LinksConfig{Allow: []string{"*.example", "!b.example"}}, "https://b.example/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			policy := newLinkPolicy(tt.cfg)
			if err := policy.Initialize(parent); err != nil {
				t.Fatalf("Initialize() error: %v", err)
			}
			if got := policy.ShouldEnqueue(parent, tt.target); got != tt.want {
				t.Errorf("ShouldEnqueue(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}

	if newLinkPolicy(config.LinksConfig{}) != runner.PolicyAllowAll {
		t.Error("empty links config should allow everything")
	}
}

func TestNewQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	q, err := newQueue(ctx, config.FrontierConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("newQueue(memory) error: %v", err)
	}
	if _, ok := q.(*storage.MemoryQueue); !ok {
		t.Errorf("newQueue(memory) = %T", q)
	}

	q, err = newQueue(ctx, config.FrontierConfig{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "f.db")})
	if err != nil {
		t.Fatalf("newQueue(sqlite) error: %v", err)
	}
	defer q.Close()
	if _, ok := q.(*storage.SQLiteQueue); !ok {
		t.Errorf("newQueue(sqlite) = %T", q)
	}

	if _, err := newQueue(ctx, config.FrontierConfig{Backend: "etcd"}); err == nil {
		t.Error("newQueue() should reject an unknown backend")
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printSummary(&buf, &crawler.Summary{RunID: "r1", Visited: 4, Failed: 1, Elapsed: 2500 * time.Millisecond})

	out := buf.String()
	for _, want := range []string{"Crawl took 2.500 seconds", "visited:    4", "failed:     1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	if !strings.HasPrefix(buf.String(), "bfscrawl version ") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestRootCmd_CrawlsLocalSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<a href="/a">a</a><a href="/b">b</a>`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/b">b</a><a href="/c">c</a>`)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/">home</a>`)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `no links`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--config", writeTestConfig(t),
		"-d", "2",
		"-b", "2",
		"--log-level", "error",
		srv.URL + "/",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if !strings.Contains(out.String(), "visited:    4") {
		t.Errorf("expected 4 visited pages, got:\n%s", out.String())
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bfscrawl.yaml")
	content := "logging:\n  color: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
