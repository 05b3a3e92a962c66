package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/session"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
)

// Sess is the session surface the registry manages. Satisfied by
// *session.Session; faked in tests.
type Sess interface {
	Start(ctx context.Context) error
	Stop()
	State() session.State
	AwaitReady(ctx context.Context) error
	IsConnected() bool
	Publish(topic string, data []byte, qos byte) error
}

// Factory builds a session for a tenant. The default wires the real
// session constructor with shared collaborators.
type Factory func(tenantID string) Sess

// Registry owns at most one session per tenant and serializes each
// tenant's lifecycle transitions through a per-tenant mutex, so a
// Restart racing a Publish-triggered Start can never interleave
// connect/disconnect steps.
//
// The registry is constructed in main and passed by reference; there are
// no package-level singletons.
type Registry struct {
	factory Factory
	subs    subscription.Repository
	logger  *logging.Logger

	mu      sync.Mutex
	tenants map[string]*entry
}

// entry pairs a tenant's session with its lifecycle lock.
type entry struct {
	mu   sync.Mutex
	sess Sess
}

// New creates a Registry.
//
// Parameters:
//   - factory: Session constructor, called lazily per tenant
//   - subs: Subscription repository, used to enumerate active tenants
//   - logger: Structured logger
func New(factory Factory, subs subscription.Repository, logger *logging.Logger) *Registry {
	return &Registry{
		factory: factory,
		subs:    subs,
		logger:  logger,
		tenants: make(map[string]*entry),
	}
}

// entryFor returns the tenant's entry, creating it if needed.
func (r *Registry) entryFor(tenantID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tenants[tenantID]
	if !ok {
		e = &entry{}
		r.tenants[tenantID] = e
	}
	return e
}

// Start brings the tenant's session up. Safe to call on a running
// tenant; the session reports ErrAlreadyStarted which Start swallows.
func (r *Registry) Start(ctx context.Context, tenantID string) error {
	e := r.entryFor(tenantID)
	e.mu.Lock()
	defer e.mu.Unlock()

	return r.startLocked(ctx, tenantID, e)
}

// startLocked starts the entry's session. Caller holds e.mu.
func (r *Registry) startLocked(ctx context.Context, tenantID string, e *entry) error {
	if e.sess == nil {
		e.sess = r.factory(tenantID)
	}

	err := e.sess.Start(ctx)
	if err != nil && !errors.Is(err, session.ErrAlreadyStarted) {
		return fmt.Errorf("starting session for tenant %s: %w", tenantID, err)
	}
	return nil
}

// Stop tears the tenant's session down. No-op for unknown tenants.
func (r *Registry) Stop(tenantID string) {
	e := r.entryFor(tenantID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil {
		e.sess.Stop()
	}
}

// Restart stops and then starts the tenant's session under one lifecycle
// lock, so no other transition can slip between the two halves. Used
// after subscription rules or broker credentials change.
func (r *Registry) Restart(ctx context.Context, tenantID string) error {
	e := r.entryFor(tenantID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil {
		e.sess.Stop()
	}
	return r.startLocked(ctx, tenantID, e)
}

// StartAllActiveTenants starts a session for every tenant with at least
// one active subscription rule. Per-tenant failures are logged and do
// not stop the sweep.
//
// Returns:
//   - int: Number of sessions successfully started
//   - error: Only when the tenant enumeration itself fails
func (r *Registry) StartAllActiveTenants(ctx context.Context) (int, error) {
	tenants, err := r.subs.ListTenantsWithActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing active tenants: %w", err)
	}

	started := 0
	for _, tenantID := range tenants {
		if err := r.Start(ctx, tenantID); err != nil {
			r.logger.Error("starting tenant session failed",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
		started++
	}

	r.logger.Info("tenant session sweep complete",
		"started", started,
		"total", len(tenants),
	)

	return started, nil
}

// StopAll tears down every known session, for graceful shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Stop(id)
	}
}

// State reports the tenant session's lifecycle state.
// Unknown tenants report Disconnected.
func (r *Registry) State(tenantID string) session.State {
	e := r.entryFor(tenantID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return session.StateDisconnected
	}
	return e.sess.State()
}

// ensureStarted returns the tenant's session, starting it if necessary.
// Caller must not hold the entry lock.
func (r *Registry) ensureStarted(ctx context.Context, tenantID string) (Sess, error) {
	e := r.entryFor(tenantID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil && e.sess.State() != session.StateDisconnected {
		return e.sess, nil
	}

	if err := r.startLocked(ctx, tenantID, e); err != nil {
		return nil, err
	}
	return e.sess, nil
}
