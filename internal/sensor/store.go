package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/payload"
)

// Mirror receives a copy of every appended reading. Implemented by the
// influxdb client; nil disables mirroring. Implementations must not block.
type Mirror interface {
	WriteSensorReading(tenantID, deviceID, sensorType string, value float64, alertStatus string, timestamp time.Time)
}

// Store persists sensor configs and readings.
//
// Configs are get-or-create: the first observation of a (device, sensor
// type) pair fixes unit, display name and bounds; later telemetry never
// changes them. Readings are append-only.
type Store struct {
	db     *sql.DB
	mirror Mirror
	logger *logging.Logger
}

// NewStore creates a Store.
//
// Parameters:
//   - db: Open SQLite connection
//   - mirror: Optional reading mirror (nil to disable)
//   - logger: Structured logger
func NewStore(db *sql.DB, mirror Mirror, logger *logging.Logger) *Store {
	return &Store{db: db, mirror: mirror, logger: logger}
}

// Record persists one parsed reading end to end: resolves (or creates)
// the sensor config, classifies the alert status, appends the reading,
// and mirrors it when a mirror is configured.
//
// Parameters:
//   - tenantID: Owning tenant (mirror tagging only; config identity is per device)
//   - deviceID: The resolved device
//   - r: The normalized reading from the payload parser
//   - ts: Observation timestamp
//
// Returns:
//   - *Config: The config the reading was appended to
//   - error: Persistence failure; the caller logs and continues
func (s *Store) Record(ctx context.Context, tenantID, deviceID string, r payload.Reading, ts time.Time) (*Config, error) {
	minVal, maxVal := payload.DefaultBounds(r.Type)
	cfg, err := s.GetOrCreateConfig(ctx, deviceID, r.Type, r.Unit, r.DisplayName, minVal, maxVal)
	if err != nil {
		return nil, err
	}

	alertStatus := payload.ClassifyAlert(r.Type, r.Value)
	if err := s.AppendReading(ctx, cfg.ID, r.Value, ts, alertStatus); err != nil {
		return nil, err
	}

	if s.mirror != nil {
		s.mirror.WriteSensorReading(tenantID, deviceID, r.Type, r.Value, alertStatus, ts)
	}

	return cfg, nil
}

// GetOrCreateConfig returns the sensor config for (deviceID, sensorType),
// creating it with the given attributes if absent.
//
// Idempotent under concurrency: creation runs as INSERT OR IGNORE against
// the UNIQUE(device_id, sensor_type) constraint followed by a re-select,
// so two racing first observations converge on one config and the
// loser's attributes are discarded.
func (s *Store) GetOrCreateConfig(ctx context.Context, deviceID, sensorType, unit, displayName string, minValue, maxValue float64) (*Config, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	var display *string
	if displayName != "" {
		display = &displayName
	}

	query := `
		INSERT OR IGNORE INTO sensor_configs
			(device_id, sensor_type, unit, display_name, min_value, max_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		deviceID, sensorType, unit, display, minValue, maxValue, now, now)
	if err != nil {
		return nil, fmt.Errorf("creating sensor config: %w", err)
	}

	return s.GetConfig(ctx, deviceID, sensorType)
}

// GetConfig retrieves the sensor config for (deviceID, sensorType).
// Returns ErrConfigNotFound if it does not exist.
func (s *Store) GetConfig(ctx context.Context, deviceID, sensorType string) (*Config, error) {
	query := `
		SELECT id, device_id, sensor_type, unit, display_name, min_value, max_value, created_at, updated_at
		FROM sensor_configs
		WHERE device_id = ? AND sensor_type = ?`

	cfg, err := scanConfig(s.db.QueryRowContext(ctx, query, deviceID, sensorType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("querying sensor config: %w", err)
	}
	return cfg, nil
}

// ListConfigs retrieves all sensor configs for a device, ordered by type.
func (s *Store) ListConfigs(ctx context.Context, deviceID string) ([]Config, error) {
	query := `
		SELECT id, device_id, sensor_type, unit, display_name, min_value, max_value, created_at, updated_at
		FROM sensor_configs
		WHERE device_id = ?
		ORDER BY sensor_type`

	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying sensor configs: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor config: %w", err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor configs: %w", err)
	}

	return configs, nil
}

// AppendReading inserts one reading. Pure insert, never an update.
func (s *Store) AppendReading(ctx context.Context, configID int64, value float64, ts time.Time, alertStatus string) error {
	query := `
		INSERT INTO sensor_readings (sensor_config_id, value, timestamp, alert_status)
		VALUES (?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, configID, value, ts.UTC().Format(time.RFC3339), alertStatus)
	if err != nil {
		return fmt.Errorf("appending sensor reading: %w", err)
	}
	return nil
}

// UpdateDisplayName sets or clears a sensor config's display name.
// This is the one telemetry-adjacent mutation path on configs; an empty
// name clears the label back to NULL.
func (s *Store) UpdateDisplayName(ctx context.Context, deviceID, sensorType, displayName string) error {
	var display *string
	if displayName != "" {
		display = &displayName
	}

	query := `
		UPDATE sensor_configs
		SET display_name = ?, updated_at = ?
		WHERE device_id = ? AND sensor_type = ?`

	result, err := s.db.ExecContext(ctx, query,
		display, time.Now().UTC().Format(time.RFC3339), deviceID, sensorType)
	if err != nil {
		return fmt.Errorf("updating sensor display name: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// LatestByDevice returns the most recent reading for each of a device's
// sensor configs, keyed by config ID. Configs with no readings are absent.
func (s *Store) LatestByDevice(ctx context.Context, deviceID string) (map[int64]Reading, error) {
	query := `
		SELECT r.id, r.sensor_config_id, r.value, r.timestamp, r.alert_status
		FROM sensor_readings r
		JOIN sensor_configs c ON c.id = r.sensor_config_id
		WHERE c.device_id = ?
			AND r.id = (
				SELECT MAX(id) FROM sensor_readings WHERE sensor_config_id = r.sensor_config_id
			)`

	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying latest readings: %w", err)
	}
	defer rows.Close()

	latest := make(map[int64]Reading)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		latest[r.SensorConfigID] = *r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating latest readings: %w", err)
	}

	return latest, nil
}

// ReadingsByRange returns a config's readings within [from, to], newest
// first, capped at limit.
func (s *Store) ReadingsByRange(ctx context.Context, configID int64, from, to time.Time, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT id, sensor_config_id, value, timestamp, alert_status
		FROM sensor_readings
		WHERE sensor_config_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, configID,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings by range: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		readings = append(readings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	return readings, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(s scanner) (*Config, error) {
	var (
		cfg                        Config
		display                    sql.NullString
		minValue, maxValue         sql.NullFloat64
		createdAtStr, updatedAtStr string
	)
	err := s.Scan(&cfg.ID, &cfg.DeviceID, &cfg.SensorType, &cfg.Unit,
		&display, &minValue, &maxValue, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if display.Valid {
		cfg.DisplayName = &display.String
	}
	if minValue.Valid {
		cfg.MinValue = &minValue.Float64
	}
	if maxValue.Valid {
		cfg.MaxValue = &maxValue.Float64
	}
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		cfg.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAtStr); err == nil {
		cfg.UpdatedAt = t
	}

	return &cfg, nil
}

func scanReading(s scanner) (*Reading, error) {
	var (
		r            Reading
		timestampStr string
	)
	err := s.Scan(&r.ID, &r.SensorConfigID, &r.Value, &timestampStr, &r.AlertStatus)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, timestampStr); err == nil {
		r.Timestamp = t
	}

	return &r, nil
}
