package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence operations for subscription rules and
// broker credentials. The core reads this data; writes happen in the
// management plane.
type Repository interface {
	// ListActiveByTenant retrieves all active subscription rules for a tenant,
	// oldest first.
	ListActiveByTenant(ctx context.Context, tenantID string) ([]TopicSubscription, error)

	// GetCredential retrieves a broker credential by ID.
	// Returns ErrCredentialNotFound if it does not exist.
	GetCredential(ctx context.Context, id string) (*BrokerCredential, error)

	// ListTenantsWithActive returns the distinct tenant IDs that have at
	// least one active subscription rule.
	ListTenantsWithActive(ctx context.Context) ([]string, error)
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

// ListActiveByTenant retrieves all active subscription rules for a tenant.
func (r *SQLiteRepository) ListActiveByTenant(ctx context.Context, tenantID string) ([]TopicSubscription, error) {
	query := `
		SELECT id, tenant_id, name, subscribe_topics, publish_topic,
			field_mapping, broker_credential_id, is_active, created_at, updated_at
		FROM topic_subscriptions
		WHERE tenant_id = ? AND is_active = 1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions for tenant: %w", err)
	}
	defer rows.Close()

	var subs []TopicSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}

	return subs, nil
}

// GetCredential retrieves a broker credential by ID.
func (r *SQLiteRepository) GetCredential(ctx context.Context, id string) (*BrokerCredential, error) {
	query := `
		SELECT id, name, host, port, username, password,
			api_port, api_key, api_secret, is_active, created_at, updated_at
		FROM broker_credentials
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	var (
		cred                       BrokerCredential
		username, password         sql.NullString
		apiPort                    sql.NullInt64
		apiKey, apiSecret          sql.NullString
		createdAtStr, updatedAtStr string
	)
	err := row.Scan(
		&cred.ID, &cred.Name, &cred.Host, &cred.Port, &username, &password,
		&apiPort, &apiKey, &apiSecret, &cred.IsActive, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("querying broker credential: %w", err)
	}

	cred.Username = username.String
	cred.Password = password.String
	cred.APIPort = int(apiPort.Int64)
	cred.APIKey = apiKey.String
	cred.APISecret = apiSecret.String
	cred.CreatedAt = parseTimestamp(createdAtStr)
	cred.UpdatedAt = parseTimestamp(updatedAtStr)

	return &cred, nil
}

// ListTenantsWithActive returns distinct tenant IDs with at least one
// active subscription rule.
func (r *SQLiteRepository) ListTenantsWithActive(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM topic_subscriptions
		WHERE is_active = 1
		ORDER BY tenant_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("scanning tenant id: %w", err)
		}
		tenants = append(tenants, tenantID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating active tenants: %w", err)
	}

	return tenants, nil
}

// scanSubscription scans a subscription row from rows positioned by Next.
func scanSubscription(rows *sql.Rows) (*TopicSubscription, error) {
	var (
		sub                        TopicSubscription
		publishTopic, fieldMapping sql.NullString
		createdAtStr, updatedAtStr string
	)
	err := rows.Scan(
		&sub.ID, &sub.TenantID, &sub.Name, &sub.SubscribeTopics, &publishTopic,
		&fieldMapping, &sub.BrokerCredentialID, &sub.IsActive, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	sub.PublishTopic = publishTopic.String
	sub.FieldMapping = fieldMapping.String
	sub.CreatedAt = parseTimestamp(createdAtStr)
	sub.UpdatedAt = parseTimestamp(updatedAtStr)

	return &sub, nil
}

// parseTimestamp parses an RFC3339 timestamp from storage.
// Unparseable values yield the zero time rather than an error; the
// timestamps are informational and never drive logic.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
