package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/csvship"
	"github.com/bft-labs/csvship/internal/watch"
	"github.com/bft-labs/csvship/pkg/log"
)

// Config holds CLI configuration for csvship.
type Config struct {
	Table     string
	Columns   []string
	Delimiter string

	MaxRecordsPerBatch   int
	MaxConcurrentBatches int
	BatchDelay           time.Duration
	MaxRetries           int
	RetryBackoff         time.Duration

	Region   string
	Profile  string
	Endpoint string

	LogLevel    string
	MetricsAddr string

	WatchPattern         string
	WatchSettle          time.Duration
	WatchIncludeExisting bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Table:                csvship.DefaultTable,
		Columns:              append([]string(nil), csvship.DefaultColumns...),
		Delimiter:            ",",
		MaxRecordsPerBatch:   csvship.DefaultMaxRecordsPerBatch,
		MaxConcurrentBatches: csvship.DefaultMaxConcurrentBatches,
		BatchDelay:           csvship.DefaultBatchDelay,
		Region:               os.Getenv("AWS_REGION"),
		LogLevel:             "info",
		WatchPattern:         watch.DefaultPattern,
		WatchSettle:          watch.DefaultSettle,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.WatchSettle < 0 {
		return fmt.Errorf("watch settle must not be negative")
	}
	return c.LibConfig().Validate()
}

// LibConfig converts the CLI configuration into the library configuration.
func (c *Config) LibConfig() csvship.Config {
	return csvship.Config{
		Table:                c.Table,
		Columns:              c.Columns,
		Delimiter:            unescapeDelimiter(c.Delimiter),
		MaxRecordsPerBatch:   c.MaxRecordsPerBatch,
		MaxConcurrentBatches: c.MaxConcurrentBatches,
		BatchDelay:           c.BatchDelay,
		MaxRetries:           c.MaxRetries,
		RetryBackoff:         c.RetryBackoff,
		Region:               c.Region,
		Profile:              c.Profile,
		Endpoint:             c.Endpoint,
	}
}

// WatchConfig returns the inbox watcher configuration for dir.
func (c *Config) WatchConfig(dir string) watch.Config {
	return watch.Config{
		Dir:             dir,
		Pattern:         c.WatchPattern,
		Settle:          c.WatchSettle,
		IncludeExisting: c.WatchIncludeExisting,
	}
}

// unescapeDelimiter lets a tab be written as `\t` or "tab" in flags and env.
func unescapeDelimiter(d string) string {
	switch d {
	case `\t`, "tab":
		return "\t"
	}
	return d
}

// SplitColumns parses a comma-separated column list, dropping blanks.
func SplitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
