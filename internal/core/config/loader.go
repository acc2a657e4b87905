package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/resilience/internal/core/failure"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, failure.Wrap(failure.Configuration, err, "failed to parse config file: %v", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	var cfg AppConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = "memory"
	}
	if cfg.Journal.WriteTimeout == 0 {
		cfg.Journal.WriteTimeout = 5 * time.Second
	}
	if cfg.Journal.Buffer <= 0 {
		cfg.Journal.Buffer = DefaultJournalBuffer
	}
	if cfg.Pool.MaxConcurrency <= 0 {
		cfg.Pool.MaxConcurrency = DefaultConcurrency
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgx"
	}
}

// RequireKeys fails with a configuration error naming every key that is missing or blank in
// values.
func RequireKeys(values map[string]string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(values[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return failure.New(failure.Configuration, "missing required configuration: %s",
			strings.Join(missing, ", "))
	}
	return nil
}
