package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for FieldSense Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Publish  PublishConfig  `yaml:"publish"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig contains service-level identification settings.
type ServiceConfig struct {
	// Name identifies this deployment in logs and MQTT client IDs.
	Name string `yaml:"name"`

	// ClientIDPrefix is prepended to the tenant ID when building MQTT
	// client identifiers, so broker-side client listings are readable.
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// IngestConfig contains per-tenant message ingestion settings.
type IngestConfig struct {
	// QueueSize is the capacity of each tenant's inbound message channel.
	// When full, new messages are dropped with a warning rather than
	// blocking the network loop.
	QueueSize int `yaml:"queue_size"`

	// QoS is the subscription QoS level requested for telemetry topics.
	QoS int `yaml:"qos"`
}

// PublishConfig contains outbound publish timing settings.
type PublishConfig struct {
	// ReadyTimeout is the maximum time in seconds to wait for a session
	// to become connected before a publish fails with not-connected.
	ReadyTimeout int `yaml:"ready_timeout"`

	// ReadyPollInterval is the readiness polling interval in milliseconds.
	ReadyPollInterval int `yaml:"ready_poll_interval"`

	// AckTimeout is the maximum time in seconds to wait for broker
	// acknowledgment of a published message.
	AckTimeout int `yaml:"ack_timeout"`
}

// InfluxDBConfig contains settings for the optional time-series mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FIELDSENSE_SECTION_KEY
// For example: FIELDSENSE_DATABASE_PATH, FIELDSENSE_INFLUXDB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:           "fieldsense",
			ClientIDPrefix: "fieldsense-core",
		},
		Database: DatabaseConfig{
			Path:        "./data/fieldsense.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Ingest: IngestConfig{
			QueueSize: 256,
			QoS:       1,
		},
		Publish: PublishConfig{
			ReadyTimeout:      5,
			ReadyPollInterval: 100,
			AckTimeout:        5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FIELDSENSE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FIELDSENSE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FIELDSENSE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("FIELDSENSE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("FIELDSENSE_INGEST_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Ingest.QueueSize = n
		}
	}
	if v := os.Getenv("FIELDSENSE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.Name == "" {
		errs = append(errs, "service.name is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Ingest.QoS < 0 || c.Ingest.QoS > 2 {
		errs = append(errs, "ingest.qos must be 0, 1, or 2")
	}
	if c.Ingest.QueueSize < 1 {
		errs = append(errs, "ingest.queue_size must be at least 1")
	}
	if c.Publish.ReadyTimeout < 1 {
		errs = append(errs, "publish.ready_timeout must be at least 1 second")
	}
	if c.Publish.ReadyPollInterval < 1 {
		errs = append(errs, "publish.ready_poll_interval must be at least 1 millisecond")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadyTimeout returns the publish readiness wait bound as a Duration.
func (c *PublishConfig) GetReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeout) * time.Second
}

// GetReadyPollInterval returns the readiness polling interval as a Duration.
func (c *PublishConfig) GetReadyPollInterval() time.Duration {
	return time.Duration(c.ReadyPollInterval) * time.Millisecond
}

// GetAckTimeout returns the publish acknowledgment wait bound as a Duration.
func (c *PublishConfig) GetAckTimeout() time.Duration {
	return time.Duration(c.AckTimeout) * time.Second
}
