package spawnq

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the scheduler configuration.
// It can be populated from JSON, YAML or environment variables; the
// zero-value inherits package defaults.
type Config struct {
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
}

// SchedulerConfig holds the scheduler knobs. Durations are expressed in
// milliseconds to keep the wire format integer-only.
type SchedulerConfig struct {
	Parallelism    int `json:"parallelism" yaml:"parallelism"`
	PollIntervalMs int `json:"pollIntervalMs" yaml:"pollIntervalMs"`
	StartDelayMs   int `json:"startDelayMs" yaml:"startDelayMs"`
}

// DefaultConfig returns a Config populated with the package defaults:
// serial execution, 100ms completion polling, no start pacing.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Parallelism:    1,
			PollIntervalMs: 100,
			StartDelayMs:   0,
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Scheduler.Parallelism < 1 {
		return fmt.Errorf("scheduler.parallelism must be >= 1, had %v", c.Scheduler.Parallelism)
	}
	if c.Scheduler.PollIntervalMs < 0 {
		return fmt.Errorf("scheduler.pollIntervalMs must be >= 0, had %v", c.Scheduler.PollIntervalMs)
	}
	if c.Scheduler.StartDelayMs < 0 {
		return fmt.Errorf("scheduler.startDelayMs must be >= 0, had %v", c.Scheduler.StartDelayMs)
	}
	return nil
}

// LoadConfig reads a YAML config from the supplied URL (file path, file://,
// s3://, gs:// - any scheme the afs service understands), applies SPAWNQ_*
// environment overrides and validates the result.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	config.applyEnvOverrides()
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnvOverrides() {
	if value := os.Getenv("SPAWNQ_PARALLELISM"); value != "" {
		c.Scheduler.Parallelism = toolbox.AsInt(value)
	}
	if value := os.Getenv("SPAWNQ_POLL_INTERVAL_MS"); value != "" {
		c.Scheduler.PollIntervalMs = toolbox.AsInt(value)
	}
	if value := os.Getenv("SPAWNQ_START_DELAY_MS"); value != "" {
		c.Scheduler.StartDelayMs = toolbox.AsInt(value)
	}
}
