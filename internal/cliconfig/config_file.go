package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Table                string   `toml:"table"`
	Columns              []string `toml:"columns"`
	Delimiter            string   `toml:"delimiter"`
	MaxRecordsPerBatch   int      `toml:"max_records_per_batch"`
	MaxConcurrentBatches int      `toml:"max_concurrent_batches"`
	BatchDelay           string   `toml:"batch_delay"`
	MaxRetries           int      `toml:"max_retries"`
	RetryBackoff         string   `toml:"retry_backoff"`
	Region               string   `toml:"region"`
	Profile              string   `toml:"profile"`
	Endpoint             string   `toml:"endpoint"`
	LogLevel             string   `toml:"log_level"`
	MetricsAddr          string   `toml:"metrics_addr"`
	Watch                struct {
		Pattern         string `toml:"pattern"`
		Settle          string `toml:"settle"`
		IncludeExisting *bool  `toml:"include_existing"`
	} `toml:"watch"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.csvship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".csvship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("table", fc.Table, &cfg.Table)
	s.setStrings("columns", fc.Columns, &cfg.Columns)
	s.setString("delimiter", fc.Delimiter, &cfg.Delimiter)
	s.setString("region", fc.Region, &cfg.Region)
	s.setString("profile", fc.Profile, &cfg.Profile)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("pattern", fc.Watch.Pattern, &cfg.WatchPattern)

	s.setInt("batch-size", fc.MaxRecordsPerBatch, &cfg.MaxRecordsPerBatch)
	s.setInt("concurrency", fc.MaxConcurrentBatches, &cfg.MaxConcurrentBatches)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	if err := s.setDuration("batch-delay", fc.BatchDelay, &cfg.BatchDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-backoff", fc.RetryBackoff, &cfg.RetryBackoff); err != nil {
		return err
	}
	if err := s.setDuration("settle", fc.Watch.Settle, &cfg.WatchSettle); err != nil {
		return err
	}

	s.setBool("include-existing", fc.Watch.IncludeExisting, &cfg.WatchIncludeExisting)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
