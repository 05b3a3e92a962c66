package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldsense/fieldsense-core/internal/emqx"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/session"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
)

// statusSubsRepo serves one tenant's rules and credential.
type statusSubsRepo struct {
	rules   []subscription.TopicSubscription
	cred    *subscription.BrokerCredential
	listErr error
}

func (f *statusSubsRepo) ListActiveByTenant(context.Context, string) ([]subscription.TopicSubscription, error) {
	return f.rules, f.listErr
}

func (f *statusSubsRepo) GetCredential(context.Context, string) (*subscription.BrokerCredential, error) {
	if f.cred == nil {
		return nil, subscription.ErrCredentialNotFound
	}
	return f.cred, nil
}

func (f *statusSubsRepo) ListTenantsWithActive(context.Context) ([]string, error) {
	return nil, nil
}

// fakeAdmin reports a fixed set of online client IDs.
type fakeAdmin struct {
	online map[string]bool
	asked  []string
}

func (f *fakeAdmin) IsClientOnline(_ context.Context, clientID string) bool {
	f.asked = append(f.asked, clientID)
	return f.online[clientID]
}

func newStatusReporter(subs *statusSubsRepo, admin *fakeAdmin) *StatusReporter {
	reg, _ := testRegistry(nil)
	r := NewStatusReporter(reg, subs, "core", logging.Default())
	if admin != nil {
		r.newAdmin = func(emqx.Config) adminClient { return admin }
	}
	return r
}

func TestTenantStatusOnline(t *testing.T) {
	subs := &statusSubsRepo{
		rules: []subscription.TopicSubscription{{ID: "sub-1", BrokerCredentialID: "cred-1"}},
		cred: &subscription.BrokerCredential{
			ID: "cred-1", Host: "broker.local", APIPort: 18083, APIKey: "k", APISecret: "s",
		},
	}
	admin := &fakeAdmin{online: map[string]bool{"core-tenant-a": true}}
	reporter := newStatusReporter(subs, admin)

	status, err := reporter.TenantStatus(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("TenantStatus() error = %v", err)
	}

	if status.Broker != BrokerOnline {
		t.Errorf("Broker = %q, want online", status.Broker)
	}
	if status.ClientID != "core-tenant-a" {
		t.Errorf("ClientID = %q, want core-tenant-a", status.ClientID)
	}
	if status.State != session.StateDisconnected {
		t.Errorf("State = %v, want Disconnected (never started)", status.State)
	}
	if len(admin.asked) != 1 || admin.asked[0] != "core-tenant-a" {
		t.Errorf("admin asked = %v", admin.asked)
	}
}

func TestTenantStatusOffline(t *testing.T) {
	subs := &statusSubsRepo{
		rules: []subscription.TopicSubscription{{ID: "sub-1", BrokerCredentialID: "cred-1"}},
		cred: &subscription.BrokerCredential{
			ID: "cred-1", Host: "broker.local", APIPort: 18083, APIKey: "k", APISecret: "s",
		},
	}
	reporter := newStatusReporter(subs, &fakeAdmin{})

	status, err := reporter.TenantStatus(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("TenantStatus() error = %v", err)
	}
	if status.Broker != BrokerOffline {
		t.Errorf("Broker = %q, want offline", status.Broker)
	}
}

func TestTenantStatusNoAdminAPI(t *testing.T) {
	// Credential without admin API settings: verdict stays unknown and
	// the admin client is never built.
	subs := &statusSubsRepo{
		rules: []subscription.TopicSubscription{{ID: "sub-1", BrokerCredentialID: "cred-1"}},
		cred:  &subscription.BrokerCredential{ID: "cred-1", Host: "broker.local"},
	}
	admin := &fakeAdmin{}
	reporter := newStatusReporter(subs, admin)

	status, err := reporter.TenantStatus(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("TenantStatus() error = %v", err)
	}
	if status.Broker != BrokerUnknown {
		t.Errorf("Broker = %q, want unknown", status.Broker)
	}
	if len(admin.asked) != 0 {
		t.Errorf("admin asked = %v, want none", admin.asked)
	}
}

func TestTenantStatusNoActiveRules(t *testing.T) {
	reporter := newStatusReporter(&statusSubsRepo{}, &fakeAdmin{})

	status, err := reporter.TenantStatus(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("TenantStatus() error = %v", err)
	}
	if status.Broker != BrokerUnknown {
		t.Errorf("Broker = %q, want unknown", status.Broker)
	}
}

func TestTenantStatusMissingCredential(t *testing.T) {
	// A dangling credential reference degrades to unknown, not an error.
	subs := &statusSubsRepo{
		rules: []subscription.TopicSubscription{{ID: "sub-1", BrokerCredentialID: "gone"}},
	}
	reporter := newStatusReporter(subs, &fakeAdmin{})

	status, err := reporter.TenantStatus(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("TenantStatus() error = %v", err)
	}
	if status.Broker != BrokerUnknown {
		t.Errorf("Broker = %q, want unknown", status.Broker)
	}
}

func TestTenantStatusListFailure(t *testing.T) {
	subs := &statusSubsRepo{listErr: errors.New("db gone")}
	reporter := newStatusReporter(subs, &fakeAdmin{})

	if _, err := reporter.TenantStatus(context.Background(), "tenant-a"); err == nil {
		t.Error("TenantStatus() expected error when listing fails")
	}
}
