// Package config handles loading and validating FieldSense Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Per-tenant broker credentials and topic subscriptions are NOT part of this
// package: those live in the database and are owned by the subscription
// package. This package covers only process-level settings (database path,
// logging, ingestion tuning, the optional InfluxDB mirror).
//
// Security Considerations:
//   - Sensitive values (tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Path)
package config
