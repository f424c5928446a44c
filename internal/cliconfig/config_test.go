package cliconfig

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bft-labs/csvship"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Table != "Provider" {
		t.Errorf("Table = %v, want Provider", cfg.Table)
	}
	if !reflect.DeepEqual(cfg.Columns, []string{"GTIN", "ProductDescription", "SKU"}) {
		t.Errorf("Columns = %v", cfg.Columns)
	}
	if cfg.MaxRecordsPerBatch != 25 {
		t.Errorf("MaxRecordsPerBatch = %v, want 25", cfg.MaxRecordsPerBatch)
	}
	if cfg.MaxConcurrentBatches != 1 {
		t.Errorf("MaxConcurrentBatches = %v, want 1", cfg.MaxConcurrentBatches)
	}
	if cfg.BatchDelay != 900*time.Millisecond {
		t.Errorf("BatchDelay = %v, want 900ms", cfg.BatchDelay)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	// Columns must not alias the package default.
	cfg.Columns[0] = "changed"
	if csvship.DefaultColumns[0] != "GTIN" {
		t.Error("DefaultConfig() shares the DefaultColumns slice")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "missing table", mutate: func(c *Config) { c.Table = "" }, wantErr: true},
		{name: "no columns", mutate: func(c *Config) { c.Columns = nil }, wantErr: true},
		{name: "duplicate column", mutate: func(c *Config) { c.Columns = []string{"A", "A"} }, wantErr: true},
		{name: "batch size too large", mutate: func(c *Config) { c.MaxRecordsPerBatch = 26 }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.MaxConcurrentBatches = 0 }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.BatchDelay = -time.Second }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "negative settle", mutate: func(c *Config) { c.WatchSettle = -time.Second }, wantErr: true},
		{name: "tab delimiter", mutate: func(c *Config) { c.Delimiter = "tab" }},
		{name: "empty delimiter", mutate: func(c *Config) { c.Delimiter = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateWrapsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table = ""
	if err := cfg.Validate(); !errors.Is(err, csvship.ErrInvalidConfig) {
		t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
	}
}

func TestConfig_LibConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table = "Catalog"
	cfg.Delimiter = `\t`
	cfg.MaxRetries = 3
	cfg.RetryBackoff = 50 * time.Millisecond
	cfg.Endpoint = "http://localhost:8000"

	lib := cfg.LibConfig()
	if lib.Table != "Catalog" {
		t.Errorf("Table = %v", lib.Table)
	}
	if lib.Delimiter != "\t" {
		t.Errorf("Delimiter = %q, want tab", lib.Delimiter)
	}
	if lib.MaxRetries != 3 || lib.RetryBackoff != 50*time.Millisecond {
		t.Errorf("retry settings = %d/%v", lib.MaxRetries, lib.RetryBackoff)
	}
	if lib.Endpoint != "http://localhost:8000" {
		t.Errorf("Endpoint = %v", lib.Endpoint)
	}
}

func TestConfig_WatchConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WatchPattern = "*.tsv"
	cfg.WatchIncludeExisting = true

	wc := cfg.WatchConfig("/inbox")
	if wc.Dir != "/inbox" || wc.Pattern != "*.tsv" || !wc.IncludeExisting {
		t.Errorf("WatchConfig() = %+v", wc)
	}
	if wc.Settle != cfg.WatchSettle {
		t.Errorf("Settle = %v, want %v", wc.Settle, cfg.WatchSettle)
	}
}

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"GTIN", []string{"GTIN"}},
		{"GTIN, SKU ,,Name", []string{"GTIN", "SKU", "Name"}},
	}
	for _, tt := range tests {
		if got := SplitColumns(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitColumns(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
