package emqx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
)

// newTestClient points a Client at a test server.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())

	return New(Config{
		Host:      u.Hostname(),
		APIPort:   port,
		APIKey:    "test-key",
		APISecret: "test-secret",
	}, logging.Default())
}

func clientsHandler(t *testing.T, clients []ClientInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/clients" {
			http.NotFound(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "test-key" || pass != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := clientsResponse{Data: clients}
		resp.Meta.Count = len(clients)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}
}

func TestListClients(t *testing.T) {
	srv := httptest.NewServer(clientsHandler(t, []ClientInfo{
		{ClientID: "fieldsense-core-tenant-a", Connected: true},
		{ClientID: "device-77", Connected: false},
	}))
	defer srv.Close()

	clients := newTestClient(t, srv).ListClients(context.Background())
	if len(clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2", len(clients))
	}
	if clients[0].ClientID != "fieldsense-core-tenant-a" || !clients[0].Connected {
		t.Errorf("clients[0] = %+v", clients[0])
	}
}

func TestConnectedClientIDs(t *testing.T) {
	srv := httptest.NewServer(clientsHandler(t, []ClientInfo{
		{ClientID: "a", Connected: true},
		{ClientID: "b", Connected: false},
		{ClientID: "c", Connected: true},
	}))
	defer srv.Close()

	ids := newTestClient(t, srv).ConnectedClientIDs(context.Background())
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("ids = %v, want [a c]", ids)
	}
}

func TestIsClientOnline(t *testing.T) {
	srv := httptest.NewServer(clientsHandler(t, []ClientInfo{
		{ClientID: "a", Connected: true},
		{ClientID: "b", Connected: false},
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	ctx := context.Background()

	if !client.IsClientOnline(ctx, "a") {
		t.Error("IsClientOnline(a) = false, want true")
	}
	if client.IsClientOnline(ctx, "b") {
		t.Error("IsClientOnline(b) = true, want false")
	}
	if client.IsClientOnline(ctx, "missing") {
		t.Error("IsClientOnline(missing) = true, want false")
	}
}

func TestListClientsUnreachable(t *testing.T) {
	client := New(Config{Host: "127.0.0.1", APIPort: 1}, logging.Default())

	clients := client.ListClients(context.Background())
	if len(clients) != 0 {
		t.Errorf("clients = %v, want empty on unreachable API", clients)
	}
}

func TestListClientsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	clients := newTestClient(t, srv).ListClients(context.Background())
	if len(clients) != 0 {
		t.Errorf("clients = %v, want empty on auth failure", clients)
	}
}

func TestTest(t *testing.T) {
	srv := httptest.NewServer(clientsHandler(t, []ClientInfo{
		{ClientID: "a", Connected: true},
	}))
	defer srv.Close()

	count, err := newTestClient(t, srv).Test(context.Background())
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestTestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Test(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Test() error = %v, want ErrUnauthorized", err)
	}
}

func TestTestUnreachable(t *testing.T) {
	client := New(Config{Host: "127.0.0.1", APIPort: 1}, logging.Default())

	_, err := client.Test(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Test() error = %v, want ErrUnreachable", err)
	}
}
