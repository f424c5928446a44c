package cliconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig func() FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: func() FileConfig {
				fc := FileConfig{
					Table:                "Catalog",
					Columns:              []string{"GTIN", "SKU"},
					Delimiter:            "|",
					MaxRecordsPerBatch:   20,
					MaxConcurrentBatches: 2,
					BatchDelay:           "1s",
					MaxRetries:           3,
					RetryBackoff:         "250ms",
					Region:               "us-east-1",
					Profile:              "default",
					Endpoint:             "http://localhost:8000",
					LogLevel:             "warn",
					MetricsAddr:          ":9102",
				}
				fc.Watch.Pattern = "*.txt"
				fc.Watch.Settle = "5s"
				fc.Watch.IncludeExisting = &trueVal
				return fc
			},
			changed: map[string]bool{},
			expected: Config{
				Table:                "Catalog",
				Columns:              []string{"GTIN", "SKU"},
				Delimiter:            "|",
				MaxRecordsPerBatch:   20,
				MaxConcurrentBatches: 2,
				BatchDelay:           time.Second,
				MaxRetries:           3,
				RetryBackoff:         250 * time.Millisecond,
				Region:               "us-east-1",
				Profile:              "default",
				Endpoint:             "http://localhost:8000",
				LogLevel:             "warn",
				MetricsAddr:          ":9102",
				WatchPattern:         "*.txt",
				WatchSettle:          5 * time.Second,
				WatchIncludeExisting: true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: func() FileConfig {
				return FileConfig{Table: "Catalog", Columns: []string{"X"}}
			},
			changed: map[string]bool{"table": true},
			initial: Config{Table: "FromFlag"},
			expected: Config{
				Table:   "FromFlag", // unchanged because flag was set
				Columns: []string{"X"},
			},
		},
		{
			name: "empty values leave defaults",
			fileConfig: func() FileConfig {
				return FileConfig{}
			},
			changed:  map[string]bool{},
			initial:  DefaultConfig(),
			expected: DefaultConfig(),
		},
		{
			name: "returns error for invalid duration",
			fileConfig: func() FileConfig {
				return FileConfig{BatchDelay: "later"}
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig(), tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
table = "Catalog"
columns = ["GTIN", "ProductDescription", "SKU"]
max_records_per_batch = 25
batch_delay = "900ms"

[watch]
pattern = "*.csv"
include_existing = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Table != "Catalog" {
		t.Errorf("Table = %v, want Catalog", fc.Table)
	}
	if len(fc.Columns) != 3 || fc.Columns[1] != "ProductDescription" {
		t.Errorf("Columns = %v", fc.Columns)
	}
	if fc.MaxRecordsPerBatch != 25 {
		t.Errorf("MaxRecordsPerBatch = %v, want 25", fc.MaxRecordsPerBatch)
	}
	if fc.BatchDelay != "900ms" {
		t.Errorf("BatchDelay = %v, want 900ms", fc.BatchDelay)
	}
	if fc.Watch.Pattern != "*.csv" {
		t.Errorf("Watch.Pattern = %v", fc.Watch.Pattern)
	}
	if fc.Watch.IncludeExisting == nil || !*fc.Watch.IncludeExisting {
		t.Errorf("Watch.IncludeExisting = %v, want true", fc.Watch.IncludeExisting)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
table = "Catalog"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".csvship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .csvship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(existingFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "missing.txt")) {
		t.Error("FileExists() = true for missing file")
	}
}

// Flags beat env, env beats file, file beats defaults.
func TestPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	content := `
table = "FromFile"
region = "file-region"
profile = "file-profile"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CSVSHIP_REGION", "env-region")
	t.Setenv("CSVSHIP_TABLE", "FromEnv")

	cfg := DefaultConfig()
	cfg.Table = "FromFlag"
	changed := map[string]bool{"table": true}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatal(err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatal(err)
	}

	if cfg.Table != "FromFlag" {
		t.Errorf("Table = %v, want FromFlag", cfg.Table)
	}
	if cfg.Region != "env-region" {
		t.Errorf("Region = %v, want env-region", cfg.Region)
	}
	if cfg.Profile != "file-profile" {
		t.Errorf("Profile = %v, want file-profile", cfg.Profile)
	}
	if cfg.MaxRecordsPerBatch != 25 {
		t.Errorf("MaxRecordsPerBatch = %v, want default 25", cfg.MaxRecordsPerBatch)
	}
}
