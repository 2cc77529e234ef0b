package crawler

import (
	"fmt"
	"time"
)

type Mode string

const (
	ModeBatch      Mode = "batch"
	ModeSequential Mode = "sequential"
)

// Config holds the settings of one crawl run. It is read once when a runner
// is built.
type Config struct {
	MaxDepth  int  `mapstructure:"max_depth"`
	BatchSize int  `mapstructure:"batch_size"`
	Mode      Mode `mapstructure:"mode"`
	// FetchTimeout bounds each fetch. Zero leaves fetches unbounded.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:  2,
		BatchSize: 5,
		Mode:      ModeBatch,
	}
}

func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return &ConfigError{Field: "max_depth", Reason: fmt.Sprintf("must be >= 0, got %d", c.MaxDepth)}
	}
	if c.BatchSize < 1 {
		return &ConfigError{Field: "batch_size", Reason: fmt.Sprintf("must be >= 1, got %d", c.BatchSize)}
	}
	switch c.Mode {
	case ModeBatch, ModeSequential, "":
	default:
		return &ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", c.Mode)}
	}
	if c.FetchTimeout < 0 {
		return &ConfigError{Field: "fetch_timeout", Reason: "must not be negative"}
	}
	return nil
}
