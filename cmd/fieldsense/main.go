// FieldSense Core - Multi-Tenant Telemetry Ingestion
//
// This is the main entry point for the FieldSense Core service. It
// ingests device telemetry over MQTT for many tenants at once, each
// tenant on its own broker connection, and persists readings in SQLite
// with an optional InfluxDB mirror.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/fieldsense/fieldsense-core/migrations"

	"github.com/fieldsense/fieldsense-core/internal/device"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/config"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/database"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/influxdb"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/payload"
	"github.com/fieldsense/fieldsense-core/internal/registry"
	"github.com/fieldsense/fieldsense-core/internal/sensor"
	"github.com/fieldsense/fieldsense-core/internal/session"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting FieldSense Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to InfluxDB (optional mirror; SQLite remains system of record)
	var influxClient *influxdb.Client
	var mirror sensor.Mirror
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		mirror = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire the ingest pipeline: repositories, resolver, parser, store
	subsRepo := subscription.NewSQLiteRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	resolver := device.NewResolver(deviceRepo, subsRepo, log)
	parser := payload.NewParser(log)
	store := sensor.NewStore(db.DB, mirror, log)

	// Session factory: each tenant gets its own broker connection and
	// serial ingest pipeline, sharing the collaborators above.
	factory := func(tenantID string) registry.Sess {
		return session.New(tenantID, cfg.Service, cfg.Ingest, cfg.Publish, session.Deps{
			Subs:     subsRepo,
			Resolver: resolver,
			Parser:   parser,
			Store:    store,
			Logger:   log.With("tenant_id", tenantID),
		})
	}

	reg := registry.New(factory, subsRepo, log)
	defer func() {
		log.Info("stopping tenant sessions")
		reg.StopAll()
	}()

	// Bring up a session for every tenant with active subscription rules.
	// Individual tenant failures are logged and retried on next restart;
	// they must not prevent the service from starting.
	started, err := reg.StartAllActiveTenants(ctx)
	if err != nil {
		return fmt.Errorf("starting tenant sessions: %w", err)
	}
	log.Info("tenant sessions started", "count", started)

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Tenant sessions
	// 2. InfluxDB (if enabled)
	// 3. Database

	log.Info("FieldSense Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FIELDSENSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FIELDSENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
//
// Tenant broker connections are not part of this check: a tenant whose
// broker is down stays Disconnected without affecting service health.
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
