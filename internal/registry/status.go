package registry

import (
	"context"
	"fmt"

	"github.com/fieldsense/fieldsense-core/internal/emqx"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/session"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
)

// Broker-side connection verdicts. "unknown" covers credentials without
// an admin API and admin APIs that could not be queried.
const (
	BrokerOnline  = "online"
	BrokerOffline = "offline"
	BrokerUnknown = "unknown"
)

// TenantStatus pairs the registry's view of a tenant session with the
// broker's. The two can disagree: a session that believes it is
// connected while the broker no longer lists the client indicates a
// half-open connection.
type TenantStatus struct {
	TenantID string        `json:"tenant_id"`
	State    session.State `json:"state"`
	ClientID string        `json:"client_id"`

	// Broker is the admin API's verdict on the client connection.
	Broker string `json:"broker"`
}

// adminClient is the admin API surface the reporter queries.
// Satisfied by *emqx.Client; faked in tests.
type adminClient interface {
	IsClientOnline(ctx context.Context, clientID string) bool
}

// StatusReporter answers "is this tenant really connected" by combining
// the session lifecycle state with the broker's client listing.
type StatusReporter struct {
	registry       *Registry
	subs           subscription.Repository
	clientIDPrefix string
	logger         *logging.Logger

	// newAdmin builds the admin API client for a credential; overridden
	// in tests.
	newAdmin func(cfg emqx.Config) adminClient
}

// NewStatusReporter creates a StatusReporter.
//
// Parameters:
//   - registry: Source of session lifecycle states
//   - subs: Subscription repository, used to locate broker credentials
//   - clientIDPrefix: Prefix sessions use when building MQTT client IDs
//   - logger: Structured logger
func NewStatusReporter(registry *Registry, subs subscription.Repository, clientIDPrefix string, logger *logging.Logger) *StatusReporter {
	return &StatusReporter{
		registry:       registry,
		subs:           subs,
		clientIDPrefix: clientIDPrefix,
		logger:         logger,
		newAdmin: func(cfg emqx.Config) adminClient {
			return emqx.New(cfg, logger)
		},
	}
}

// TenantStatus reports a tenant's session state alongside the broker's
// view of the client connection.
//
// The broker verdict is advisory and degrades to BrokerUnknown when the
// tenant's credential carries no admin API settings or the API cannot
// be reached.
//
// Returns:
//   - TenantStatus: Combined status
//   - error: Only when the tenant's subscription rules cannot be read
func (r *StatusReporter) TenantStatus(ctx context.Context, tenantID string) (TenantStatus, error) {
	status := TenantStatus{
		TenantID: tenantID,
		State:    r.registry.State(tenantID),
		ClientID: r.clientIDPrefix + "-" + tenantID,
		Broker:   BrokerUnknown,
	}

	cred, err := r.activeCredential(ctx, tenantID)
	if err != nil {
		return status, err
	}
	if cred == nil || cred.APIPort == 0 || cred.APIKey == "" {
		return status, nil
	}

	admin := r.newAdmin(emqx.Config{
		Host:      cred.Host,
		APIPort:   cred.APIPort,
		APIKey:    cred.APIKey,
		APISecret: cred.APISecret,
	})
	if admin.IsClientOnline(ctx, status.ClientID) {
		status.Broker = BrokerOnline
	} else {
		status.Broker = BrokerOffline
	}

	return status, nil
}

// activeCredential returns the credential of the tenant's first active
// subscription rule, or nil when the tenant has no active rules.
func (r *StatusReporter) activeCredential(ctx context.Context, tenantID string) (*subscription.BrokerCredential, error) {
	rules, err := r.subs.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions for tenant %s: %w", tenantID, err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	cred, err := r.subs.GetCredential(ctx, rules[0].BrokerCredentialID)
	if err != nil {
		r.logger.Warn("broker credential lookup failed",
			"tenant_id", tenantID,
			"credential_id", rules[0].BrokerCredentialID,
			"error", err,
		)
		return nil, nil
	}
	return cred, nil
}
