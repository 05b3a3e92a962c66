package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfigFile writes a temporary config file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
service:
  name: fieldsense-test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./data/fieldsense.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
	if !cfg.Database.WALMode {
		t.Error("Database.WALMode = false, want true by default")
	}
	if cfg.Ingest.QueueSize != 256 {
		t.Errorf("Ingest.QueueSize = %d, want 256", cfg.Ingest.QueueSize)
	}
	if cfg.Ingest.QoS != 1 {
		t.Errorf("Ingest.QoS = %d, want 1", cfg.Ingest.QoS)
	}
	if cfg.Publish.ReadyTimeout != 5 {
		t.Errorf("Publish.ReadyTimeout = %d, want 5", cfg.Publish.ReadyTimeout)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
service:
  name: fieldsense-test
database:
  path: /tmp/custom.db
  wal_mode: false
  busy_timeout: 10
ingest:
  queue_size: 32
  qos: 2
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Database.Path = %q, want /tmp/custom.db", cfg.Database.Path)
	}
	if cfg.Ingest.QueueSize != 32 {
		t.Errorf("Ingest.QueueSize = %d, want 32", cfg.Ingest.QueueSize)
	}
	if cfg.Ingest.QoS != 2 {
		t.Errorf("Ingest.QoS = %d, want 2", cfg.Ingest.QoS)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "service: [not: valid")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
service:
  name: fieldsense-test
`)

	t.Setenv("FIELDSENSE_DATABASE_PATH", "/env/override.db")
	t.Setenv("FIELDSENSE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/env/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.Ingest.QoS = 3 },
			wantErr: "ingest.qos",
		},
		{
			name:    "zero queue size",
			mutate:  func(c *Config) { c.Ingest.QueueSize = 0 },
			wantErr: "ingest.queue_size",
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestPublishDurations(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.Publish.GetReadyTimeout().Seconds(); got != 5 {
		t.Errorf("GetReadyTimeout() = %vs, want 5s", got)
	}
	if got := cfg.Publish.GetReadyPollInterval().Milliseconds(); got != 100 {
		t.Errorf("GetReadyPollInterval() = %vms, want 100ms", got)
	}
	if got := cfg.Publish.GetAckTimeout().Seconds(); got != 5 {
		t.Errorf("GetAckTimeout() = %vs, want 5s", got)
	}
}
