package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CSVSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("table", os.Getenv("CSVSHIP_TABLE"), &cfg.Table)
	s.setStrings("columns", SplitColumns(os.Getenv("CSVSHIP_COLUMNS")), &cfg.Columns)
	s.setString("delimiter", os.Getenv("CSVSHIP_DELIMITER"), &cfg.Delimiter)
	s.setString("region", os.Getenv("CSVSHIP_REGION"), &cfg.Region)
	s.setString("profile", os.Getenv("CSVSHIP_PROFILE"), &cfg.Profile)
	s.setString("endpoint", os.Getenv("CSVSHIP_ENDPOINT"), &cfg.Endpoint)
	s.setString("log-level", os.Getenv("CSVSHIP_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", os.Getenv("CSVSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("pattern", os.Getenv("CSVSHIP_WATCH_PATTERN"), &cfg.WatchPattern)

	if err := s.setIntFromString("batch-size", os.Getenv("CSVSHIP_BATCH_SIZE"), &cfg.MaxRecordsPerBatch); err != nil {
		return err
	}
	if err := s.setIntFromString("concurrency", os.Getenv("CSVSHIP_CONCURRENCY"), &cfg.MaxConcurrentBatches); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", os.Getenv("CSVSHIP_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	if err := s.setDuration("batch-delay", os.Getenv("CSVSHIP_BATCH_DELAY"), &cfg.BatchDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-backoff", os.Getenv("CSVSHIP_RETRY_BACKOFF"), &cfg.RetryBackoff); err != nil {
		return err
	}
	if err := s.setDuration("settle", os.Getenv("CSVSHIP_WATCH_SETTLE"), &cfg.WatchSettle); err != nil {
		return err
	}

	s.setBoolFromString("include-existing", os.Getenv("CSVSHIP_WATCH_INCLUDE_EXISTING"), &cfg.WatchIncludeExisting)

	return nil
}
