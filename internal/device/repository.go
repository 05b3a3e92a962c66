package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// GetByName retrieves a device by tenant and name.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByName(ctx context.Context, tenantID, name string) (*Device, error)

	// ListByTenant retrieves all devices belonging to a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if the tenant already has a device with this name.
	Create(ctx context.Context, d *Device) error

	// LinkSubscription sets the subscription linkage for a device.
	LinkSubscription(ctx context.Context, deviceID, subscriptionID string) error

	// UpdateStatus updates a device's status field.
	// Returns ErrDeviceNotFound if the device does not exist.
	UpdateStatus(ctx context.Context, deviceID, status string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, tenant_id, name, device_type, status, subscription_id, created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	d, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// GetByName retrieves a device by tenant and name.
func (r *SQLiteRepository) GetByName(ctx context.Context, tenantID, name string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = ? AND name = ?`

	d, err := scanDevice(r.db.QueryRowContext(ctx, query, tenantID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by name: %w", err)
	}
	return d, nil
}

// ListByTenant retrieves all devices belonging to a tenant, ordered by name.
func (r *SQLiteRepository) ListByTenant(ctx context.Context, tenantID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = ? ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying devices for tenant: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	query := `
		INSERT INTO devices (id, tenant_id, name, device_type, status, subscription_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.TenantID, d.Name, d.DeviceType, d.Status, d.SubscriptionID,
		d.CreatedAt.UTC().Format(time.RFC3339), d.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: tenant %s device %s", ErrDeviceExists, d.TenantID, d.Name)
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// LinkSubscription sets the subscription linkage for a device.
func (r *SQLiteRepository) LinkSubscription(ctx context.Context, deviceID, subscriptionID string) error {
	query := `UPDATE devices SET subscription_id = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, subscriptionID, time.Now().UTC().Format(time.RFC3339), deviceID)
	if err != nil {
		return fmt.Errorf("linking device to subscription: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// UpdateStatus updates a device's status field.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, deviceID, status string) error {
	query := `UPDATE devices SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC().Format(time.RFC3339), deviceID)
	if err != nil {
		return fmt.Errorf("updating device status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row.
func scanDevice(s scanner) (*Device, error) {
	var (
		d              Device
		subscriptionID sql.NullString
		createdAtStr   string
		updatedAtStr   string
	)
	err := s.Scan(&d.ID, &d.TenantID, &d.Name, &d.DeviceType, &d.Status,
		&subscriptionID, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if subscriptionID.Valid {
		d.SubscriptionID = &subscriptionID.String
	}
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		d.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAtStr); err == nil {
		d.UpdatedAt = t
	}

	return &d, nil
}
