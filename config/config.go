// Package config loads crawler settings from an optional YAML file, the
// environment and built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/will-x86/bfscrawl"
)

const envPrefix = "BFSCRAWL"

type Config struct {
	Crawl    crawler.Config `mapstructure:"crawl"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Frontier FrontierConfig `mapstructure:"frontier"`
	Links    LinksConfig    `mapstructure:"links"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Events   EventsConfig   `mapstructure:"events"`
}

type FetcherConfig struct {
	// Kind is "http" or "chromedp".
	Kind         string        `mapstructure:"kind"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxBodySize  int64         `mapstructure:"max_body_size"`
	Headless     bool          `mapstructure:"headless"`
}

type FrontierConfig struct {
	// Backend is "memory", "sqlite" or "redis".
	Backend     string `mapstructure:"backend"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type LinksConfig struct {
	// Parser is "html" or "goquery".
	Parser         string   `mapstructure:"parser"`
	FollowInsecure bool     `mapstructure:"follow_insecure"`
	SameDomain     bool     `mapstructure:"same_domain"`
	Allow          []string `mapstructure:"allow"`
	MaxPerDomain   int      `mapstructure:"max_per_domain"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	Color      bool   `mapstructure:"color"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// EventsConfig enables publishing crawl events to Kafka when Broker is set.
type EventsConfig struct {
	KafkaBroker string `mapstructure:"kafka_broker"`
	KafkaTopic  string `mapstructure:"kafka_topic"`
}

// Load reads path, or bfscrawl.yaml from the working directory when path is
// empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bfscrawl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := crawler.DefaultConfig()
	v.SetDefault("crawl.max_depth", defaults.MaxDepth)
	v.SetDefault("crawl.batch_size", defaults.BatchSize)
	v.SetDefault("crawl.mode", string(defaults.Mode))
	v.SetDefault("crawl.fetch_timeout", "0s")

	v.SetDefault("fetcher.kind", "http")
	v.SetDefault("fetcher.timeout", "30s")
	v.SetDefault("fetcher.user_agent", "bfscrawl/1.0")
	v.SetDefault("fetcher.max_redirects", 10)
	v.SetDefault("fetcher.max_body_size", 10*1024*1024)
	v.SetDefault("fetcher.headless", true)

	v.SetDefault("frontier.backend", "memory")
	v.SetDefault("frontier.sqlite_path", "./data/frontier.db")
	v.SetDefault("frontier.redis_addr", "localhost:6379")
	v.SetDefault("frontier.redis_db", 0)
	v.SetDefault("frontier.redis_prefix", "")

	v.SetDefault("links.parser", "html")
	v.SetDefault("links.follow_insecure", false)
	v.SetDefault("links.same_domain", false)
	v.SetDefault("links.allow", []string{})
	v.SetDefault("links.max_per_domain", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("events.kafka_broker", "")
	v.SetDefault("events.kafka_topic", "bfscrawl-events")
}

func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}

	switch c.Fetcher.Kind {
	case "http", "chromedp":
	default:
		return &crawler.ConfigError{Field: "fetcher.kind", Reason: fmt.Sprintf("unknown fetcher %q", c.Fetcher.Kind)}
	}

	switch c.Frontier.Backend {
	case "memory":
	case "sqlite":
		if c.Frontier.SQLitePath == "" {
			return &crawler.ConfigError{Field: "frontier.sqlite_path", Reason: "required for the sqlite backend"}
		}
	case "redis":
		if c.Frontier.RedisAddr == "" {
			return &crawler.ConfigError{Field: "frontier.redis_addr", Reason: "required for the redis backend"}
		}
	default:
		return &crawler.ConfigError{Field: "frontier.backend", Reason: fmt.Sprintf("unknown backend %q", c.Frontier.Backend)}
	}

	switch c.Links.Parser {
	case "html", "goquery":
	default:
		return &crawler.ConfigError{Field: "links.parser", Reason: fmt.Sprintf("unknown parser %q", c.Links.Parser)}
	}
	if c.Links.MaxPerDomain < 0 {
		return &crawler.ConfigError{Field: "links.max_per_domain", Reason: "must not be negative"}
	}

	if c.Events.KafkaBroker != "" && c.Events.KafkaTopic == "" {
		return &crawler.ConfigError{Field: "events.kafka_topic", Reason: "required when a broker is set"}
	}

	return nil
}
