package crawler

import (
	"errors"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{name: "defaults", cfg: DefaultConfig()},
		{name: "depth zero", cfg: Config{MaxDepth: 0, BatchSize: 1}},
		{name: "sequential", cfg: Config{MaxDepth: 3, BatchSize: 1, Mode: ModeSequential}},
		{name: "timeout", cfg: Config{MaxDepth: 1, BatchSize: 2, FetchTimeout: time.Second}},
		{name: "negative depth", cfg: Config{MaxDepth: -1, BatchSize: 1}, wantField: "max_depth"},
		{name: "zero batch size", cfg: Config{MaxDepth: 1, BatchSize: 0}, wantField: "batch_size"},
		{name: "unknown mode", cfg: Config{MaxDepth: 1, BatchSize: 1, Mode: "async"}, wantField: "mode"},
		{name: "negative timeout", cfg: Config{MaxDepth: 1, BatchSize: 1, FetchTimeout: -time.Second}, wantField: "fetch_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxDepth != 2 || cfg.BatchSize != 5 || cfg.Mode != ModeBatch {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}
