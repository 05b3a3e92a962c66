package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/session"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
)

// fakeSess is an in-memory Sess implementation.
type fakeSess struct {
	mu         sync.Mutex
	tenantID   string
	state      session.State
	startErr   error
	publishErr error
	starts     int
	stops      int
	published  []string
	readyErr   error
}

func (s *fakeSess) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.startErr != nil {
		return s.startErr
	}
	if s.state != session.StateDisconnected {
		return session.ErrAlreadyStarted
	}
	s.state = session.StateConnected
	return nil
}

func (s *fakeSess) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.state = session.StateDisconnected
}

func (s *fakeSess) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeSess) AwaitReady(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readyErr != nil {
		return s.readyErr
	}
	if s.state != session.StateConnected {
		return session.ErrNotConnected
	}
	return nil
}

func (s *fakeSess) IsConnected() bool {
	return s.State() == session.StateConnected
}

func (s *fakeSess) Publish(topic string, _ []byte, _ byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, topic)
	return nil
}

// fakeTenantSource lists active tenants.
type fakeTenantSource struct {
	tenants []string
	err     error
}

func (f *fakeTenantSource) ListActiveByTenant(context.Context, string) ([]subscription.TopicSubscription, error) {
	return nil, nil
}

func (f *fakeTenantSource) GetCredential(context.Context, string) (*subscription.BrokerCredential, error) {
	return nil, subscription.ErrCredentialNotFound
}

func (f *fakeTenantSource) ListTenantsWithActive(context.Context) ([]string, error) {
	return f.tenants, f.err
}

// testRegistry builds a registry whose factory hands out fakeSess
// instances, recorded per tenant.
func testRegistry(source *fakeTenantSource) (*Registry, map[string]*fakeSess) {
	sessions := make(map[string]*fakeSess)
	var mu sync.Mutex
	factory := func(tenantID string) Sess {
		mu.Lock()
		defer mu.Unlock()
		s := &fakeSess{tenantID: tenantID, state: session.StateDisconnected}
		sessions[tenantID] = s
		return s
	}
	if source == nil {
		source = &fakeTenantSource{}
	}
	return New(factory, source, logging.Default()), sessions
}

func TestStartCreatesSession(t *testing.T) {
	reg, sessions := testRegistry(nil)

	if err := reg.Start(context.Background(), "tenant-a"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if sessions["tenant-a"] == nil {
		t.Fatal("no session created")
	}
	if reg.State("tenant-a") != session.StateConnected {
		t.Errorf("State() = %v, want Connected", reg.State("tenant-a"))
	}
}

func TestStartRunningTenantIsNoOp(t *testing.T) {
	reg, sessions := testRegistry(nil)
	ctx := context.Background()

	if err := reg.Start(ctx, "tenant-a"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := reg.Start(ctx, "tenant-a"); err != nil {
		t.Errorf("second Start() error = %v, want nil (already running swallowed)", err)
	}
	if sessions["tenant-a"].starts != 2 {
		t.Errorf("starts = %d, want 2", sessions["tenant-a"].starts)
	}
}

func TestStartPropagatesFailure(t *testing.T) {
	reg, _ := testRegistry(nil)

	// Pre-create so we can inject the failure before Start.
	reg.entryFor("tenant-a").sess = &fakeSess{state: session.StateDisconnected, startErr: session.ErrNoSubscriptions}

	err := reg.Start(context.Background(), "tenant-a")
	if !errors.Is(err, session.ErrNoSubscriptions) {
		t.Errorf("Start() error = %v, want ErrNoSubscriptions", err)
	}
}

func TestStopUnknownTenant(t *testing.T) {
	reg, _ := testRegistry(nil)
	reg.Stop("never-started") // must not panic
}

func TestRestart(t *testing.T) {
	reg, sessions := testRegistry(nil)
	ctx := context.Background()

	if err := reg.Start(ctx, "tenant-a"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := reg.Restart(ctx, "tenant-a"); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}

	s := sessions["tenant-a"]
	if s.stops != 1 || s.starts != 2 {
		t.Errorf("stops=%d starts=%d, want 1 and 2", s.stops, s.starts)
	}
	if reg.State("tenant-a") != session.StateConnected {
		t.Errorf("State() = %v, want Connected after restart", reg.State("tenant-a"))
	}
}

func TestStartAllActiveTenants(t *testing.T) {
	source := &fakeTenantSource{tenants: []string{"tenant-a", "tenant-b", "tenant-c"}}
	reg, sessions := testRegistry(source)

	started, err := reg.StartAllActiveTenants(context.Background())
	if err != nil {
		t.Fatalf("StartAllActiveTenants() error = %v", err)
	}
	if started != 3 {
		t.Errorf("started = %d, want 3", started)
	}
	for _, id := range source.tenants {
		if sessions[id] == nil || sessions[id].State() != session.StateConnected {
			t.Errorf("tenant %s not connected", id)
		}
	}
}

func TestStartAllActiveTenantsPartialFailure(t *testing.T) {
	source := &fakeTenantSource{tenants: []string{"tenant-a", "tenant-b"}}
	reg, _ := testRegistry(source)
	reg.entryFor("tenant-a").sess = &fakeSess{state: session.StateDisconnected, startErr: session.ErrConnectFailed}

	started, err := reg.StartAllActiveTenants(context.Background())
	if err != nil {
		t.Fatalf("StartAllActiveTenants() error = %v", err)
	}
	if started != 1 {
		t.Errorf("started = %d, want 1 (failure skipped)", started)
	}
}

func TestStartAllActiveTenantsListFailure(t *testing.T) {
	source := &fakeTenantSource{err: errors.New("db gone")}
	reg, _ := testRegistry(source)

	if _, err := reg.StartAllActiveTenants(context.Background()); err == nil {
		t.Error("StartAllActiveTenants() expected error when listing fails")
	}
}

func TestStopAll(t *testing.T) {
	source := &fakeTenantSource{tenants: []string{"tenant-a", "tenant-b"}}
	reg, sessions := testRegistry(source)

	if _, err := reg.StartAllActiveTenants(context.Background()); err != nil {
		t.Fatalf("StartAllActiveTenants() error = %v", err)
	}

	reg.StopAll()

	for id, s := range sessions {
		if s.State() != session.StateDisconnected {
			t.Errorf("tenant %s still %v after StopAll", id, s.State())
		}
	}
}

func TestLifecycleSerialization(t *testing.T) {
	// Concurrent restarts of the same tenant must never overlap; with the
	// per-tenant lock, total starts = total stop/start pairs line up.
	reg, sessions := testRegistry(nil)
	ctx := context.Background()

	if err := reg.Start(ctx, "tenant-a"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Restart(ctx, "tenant-a"); err != nil {
				t.Errorf("Restart() error = %v", err)
			}
		}()
	}
	wg.Wait()

	s := sessions["tenant-a"]
	if s.stops != n {
		t.Errorf("stops = %d, want %d", s.stops, n)
	}
	if s.starts != n+1 {
		t.Errorf("starts = %d, want %d", s.starts, n+1)
	}
	if reg.State("tenant-a") != session.StateConnected {
		t.Errorf("State() = %v, want Connected", reg.State("tenant-a"))
	}
}
