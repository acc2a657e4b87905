package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/core/retry"
	redisclient "github.com/vietddude/resilience/internal/infra/redis"
	"github.com/vietddude/resilience/internal/infra/storage/postgres"
	"github.com/vietddude/resilience/internal/infra/storage/sqlite"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig           `yaml:"server"`
	Logging  LoggingConfig          `yaml:"logging"`
	Retry    RetryConfig            `yaml:"retry"`
	Policies map[string]RetryConfig `yaml:"policies"`
	Journal  JournalConfig          `yaml:"journal"`
	Pool     PoolConfig             `yaml:"pool"`
	Redis    redisclient.Config     `yaml:"redis"`
	Database postgres.Config        `yaml:"database"`
	SQLite   sqlite.Config          `yaml:"sqlite"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RetryConfig is a retry policy as written in the file. Durations are float seconds.
// Unset fields inherit from the top-level retry section, then from compiled-in defaults.
type RetryConfig struct {
	MaxRetries      *int      `yaml:"max_retries"`
	InitialDelay    *float64  `yaml:"initial_delay"`
	MaxDelay        *float64  `yaml:"max_delay"`
	ExponentialBase *float64  `yaml:"exponential_base"`
	JitterEnabled   *bool     `yaml:"jitter_enabled"`
	JitterRange     []float64 `yaml:"jitter_range"`
	Retryable       []string  `yaml:"retryable"` // taxonomy kind names, empty retries everything
	HonorRetryAfter *bool     `yaml:"honor_retry_after"`
}

// JournalConfig selects where exhausted executions are recorded.
type JournalConfig struct {
	Backend      string        `yaml:"backend"` // none, memory, redis, postgres, sqlite
	Retention    time.Duration `yaml:"retention"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Buffer       int           `yaml:"buffer"` // records queued ahead of the writer
}

// PoolConfig bounds concurrent retried work.
type PoolConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
}

// Over returns c with every unset field taken from base.
func (c RetryConfig) Over(base RetryConfig) RetryConfig {
	out := c
	if out.MaxRetries == nil {
		out.MaxRetries = base.MaxRetries
	}
	if out.InitialDelay == nil {
		out.InitialDelay = base.InitialDelay
	}
	if out.MaxDelay == nil {
		out.MaxDelay = base.MaxDelay
	}
	if out.ExponentialBase == nil {
		out.ExponentialBase = base.ExponentialBase
	}
	if out.JitterEnabled == nil {
		out.JitterEnabled = base.JitterEnabled
	}
	if out.JitterRange == nil {
		out.JitterRange = base.JitterRange
	}
	if out.Retryable == nil {
		out.Retryable = base.Retryable
	}
	if out.HonorRetryAfter == nil {
		out.HonorRetryAfter = base.HonorRetryAfter
	}
	return out
}

// Policy converts the section to a validated retry.Policy.
func (c RetryConfig) Policy() (retry.Policy, error) {
	p := retry.DefaultPolicy()
	if c.MaxRetries != nil {
		p.MaxRetries = *c.MaxRetries
	}
	if c.InitialDelay != nil {
		p.InitialDelay = seconds(*c.InitialDelay)
	}
	if c.MaxDelay != nil {
		p.MaxDelay = seconds(*c.MaxDelay)
	}
	if c.ExponentialBase != nil {
		p.ExponentialBase = *c.ExponentialBase
	}
	if c.JitterEnabled != nil {
		p.Jitter = *c.JitterEnabled
	}
	if c.JitterRange != nil {
		if len(c.JitterRange) != 2 {
			return retry.Policy{}, failure.New(failure.Configuration,
				"jitter_range must have two values, got %d", len(c.JitterRange))
		}
		p.JitterLow, p.JitterHigh = c.JitterRange[0], c.JitterRange[1]
	}
	if err := p.Validate(); err != nil {
		return retry.Policy{}, err
	}
	return p, nil
}

// RetryableSet resolves the configured kind names.
func (c RetryConfig) RetryableSet() (failure.Set, error) {
	if len(c.Retryable) == 0 {
		return failure.Any(), nil
	}
	kinds := make([]failure.Kind, 0, len(c.Retryable))
	for _, name := range c.Retryable {
		if name == "any" {
			return failure.Any(), nil
		}
		k, ok := failure.ParseKind(name)
		if !ok {
			return failure.Set{}, failure.New(failure.Configuration, "unknown failure kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return failure.Of(kinds...), nil
}

// Options returns executor options for the section.
func (c RetryConfig) Options() ([]retry.Option, error) {
	p, err := c.Policy()
	if err != nil {
		return nil, err
	}
	set, err := c.RetryableSet()
	if err != nil {
		return nil, err
	}
	opts := []retry.Option{retry.WithPolicy(p), retry.WithRetryable(set)}
	if c.HonorRetryAfter != nil && *c.HonorRetryAfter {
		opts = append(opts, retry.WithRetryAfter(true))
	}
	return opts, nil
}

// PolicyFor returns the retry section for a named call site, layered over the default section.
// Unknown names get the default section.
func (c *AppConfig) PolicyFor(name string) RetryConfig {
	if named, ok := c.Policies[name]; ok {
		return named.Over(c.Retry)
	}
	return c.Retry
}

// PolicyNames lists the named policies in sorted order.
func (c *AppConfig) PolicyNames() []string {
	names := make([]string, 0, len(c.Policies))
	for name := range c.Policies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks every retry section and the journal backend.
func (c *AppConfig) Validate() error {
	if _, err := c.Retry.Options(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	for _, name := range c.PolicyNames() {
		if _, err := c.PolicyFor(name).Options(); err != nil {
			return fmt.Errorf("policies.%s: %w", name, err)
		}
	}
	switch c.Journal.Backend {
	case "none", "memory", "redis", "postgres", "sqlite":
	default:
		return failure.New(failure.Configuration, "unknown journal backend %q", c.Journal.Backend)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
