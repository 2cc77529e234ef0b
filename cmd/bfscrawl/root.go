package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bfscrawl [seed-url]",
		Short: "Breadth-first web crawler",
		Long: `bfscrawl visits every page reachable from a seed URL, level by level,
up to a maximum link depth. Pages at the same level are fetched
concurrently in batches; no URL is fetched twice.

Examples:
  # Crawl two levels deep with the defaults
  bfscrawl https://example.com/

  # Stay on the seed's host and go deeper
  bfscrawl -d 4 --same-domain https://example.com/

  # Keep the frontier on disk so an interrupted crawl can resume
  bfscrawl --frontier sqlite --sqlite-path ./data/example.db https://example.com/`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	f := cmd.Flags()
	f.StringP("config", "c", "", "Configuration file (default: ./bfscrawl.yaml if present)")
	f.StringP("url", "u", "", "Seed URL (alternative to the positional argument)")

	f.IntP("depth", "d", 0, "Maximum link depth from the seed")
	f.IntP("batch-size", "b", 0, "Pages fetched concurrently per round")
	f.StringP("mode", "m", "", "Crawl mode: batch or sequential")
	f.Duration("fetch-timeout", 0, "Per-page fetch timeout (0 for none)")

	f.String("fetcher", "", "Fetcher: http or chromedp")
	f.Duration("timeout", 0, "HTTP client timeout")
	f.String("user-agent", "", "User-Agent header sent by the http fetcher")
	f.Bool("headless", true, "Run the chromedp browser headless")

	f.String("frontier", "", "Frontier backend: memory, sqlite or redis")
	f.String("sqlite-path", "", "SQLite frontier database path")
	f.String("redis-addr", "", "Redis address for the redis frontier")
	f.String("redis-prefix", "", "Redis key prefix (default: a fresh prefix per run)")

	f.String("parser", "", "Anchor parser: html or goquery")
	f.Bool("follow-insecure", false, "Also follow plain http links")
	f.Bool("same-domain", false, "Only follow links on the seed's host")
	f.StringSlice("allow", nil, "Host glob patterns to follow, prefix with ! to exclude")
	f.Int("max-per-domain", 0, "Maximum links enqueued per host (0 for no limit)")

	f.String("log-level", "", "Log level: debug, info, warn or error")
	f.String("log-file", "", "Also write JSON logs to this rotated file")

	f.String("kafka-broker", "", "Publish crawl events to this Kafka broker")
	f.String("kafka-topic", "", "Kafka topic for crawl events")

	f.BoolP("progress", "p", false, "Show a progress indicator")

	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	seed, err := seedURL(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	showProgress, _ := cmd.Flags().GetBool("progress")

	app, err := newApp(ctx, cfg, showProgress)
	if err != nil {
		return err
	}
	defer app.Close()

	summary, err := app.runner.Run(ctx, seed, app.fetcher, app.queue)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	if errors.Is(err, context.Canceled) {
		app.log.Warn("Crawl interrupted")
		return nil
	}
	return err
}

func seedURL(cmd *cobra.Command, args []string) (string, error) {
	seed, _ := cmd.Flags().GetString("url")
	if len(args) == 1 {
		if seed != "" && seed != args[0] {
			return "", fmt.Errorf("seed given twice: %q and %q", seed, args[0])
		}
		seed = args[0]
	}
	if seed == "" {
		return "", &crawler.ConfigError{Field: "seed", Reason: "pass a URL as argument or with --url"}
	}
	return seed, nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}

	set("depth", func() (e error) { cfg.Crawl.MaxDepth, e = f.GetInt("depth"); return })
	set("batch-size", func() (e error) { cfg.Crawl.BatchSize, e = f.GetInt("batch-size"); return })
	set("mode", func() error {
		mode, e := f.GetString("mode")
		cfg.Crawl.Mode = crawler.Mode(mode)
		return e
	})
	set("fetch-timeout", func() (e error) { cfg.Crawl.FetchTimeout, e = f.GetDuration("fetch-timeout"); return })

	set("fetcher", func() (e error) { cfg.Fetcher.Kind, e = f.GetString("fetcher"); return })
	set("timeout", func() (e error) { cfg.Fetcher.Timeout, e = f.GetDuration("timeout"); return })
	set("user-agent", func() (e error) { cfg.Fetcher.UserAgent, e = f.GetString("user-agent"); return })
	set("headless", func() (e error) { cfg.Fetcher.Headless, e = f.GetBool("headless"); return })

	set("frontier", func() (e error) { cfg.Frontier.Backend, e = f.GetString("frontier"); return })
	set("sqlite-path", func() (e error) { cfg.Frontier.SQLitePath, e = f.GetString("sqlite-path"); return })
	set("redis-addr", func() (e error) { cfg.Frontier.RedisAddr, e = f.GetString("redis-addr"); return })
	set("redis-prefix", func() (e error) { cfg.Frontier.RedisPrefix, e = f.GetString("redis-prefix"); return })

	set("parser", func() (e error) { cfg.Links.Parser, e = f.GetString("parser"); return })
	set("follow-insecure", func() (e error) { cfg.Links.FollowInsecure, e = f.GetBool("follow-insecure"); return })
	set("same-domain", func() (e error) { cfg.Links.SameDomain, e = f.GetBool("same-domain"); return })
	set("allow", func() (e error) { cfg.Links.Allow, e = f.GetStringSlice("allow"); return })
	set("max-per-domain", func() (e error) { cfg.Links.MaxPerDomain, e = f.GetInt("max-per-domain"); return })

	set("log-level", func() (e error) { cfg.Logging.Level, e = f.GetString("log-level"); return })
	set("log-file", func() (e error) { cfg.Logging.File, e = f.GetString("log-file"); return })

	set("kafka-broker", func() (e error) { cfg.Events.KafkaBroker, e = f.GetString("kafka-broker"); return })
	set("kafka-topic", func() (e error) { cfg.Events.KafkaTopic, e = f.GetString("kafka-topic"); return })

	return err
}

func printSummary(w io.Writer, s *crawler.Summary) {
	fmt.Fprintf(w, "Crawl took %.3f seconds\n", s.Elapsed.Seconds())
	fmt.Fprintf(w, "  run:        %s\n", s.RunID)
	fmt.Fprintf(w, "  visited:    %d\n", s.Visited)
	fmt.Fprintf(w, "  skipped:    %d\n", s.Skipped)
	fmt.Fprintf(w, "  failed:     %d\n", s.Failed)
	fmt.Fprintf(w, "  discovered: %d\n", s.Discovered)
	fmt.Fprintf(w, "  enqueued:   %d\n", s.Enqueued)
	fmt.Fprintf(w, "  rounds:     %d\n", s.Rounds)
	fmt.Fprintf(w, "  max depth:  %d\n", s.MaxDepth)
}
