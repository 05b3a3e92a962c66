package emqx

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
)

// Default request bounds for the admin API.
const (
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 1000
	maxPages        = 100
)

// Config locates one broker's management API.
type Config struct {
	// Host is the broker host; the admin API is assumed to live on the
	// same machine as the MQTT listener.
	Host string

	// APIPort is the management API port (EMQX default 18083).
	APIPort int

	// APIKey and APISecret authenticate via HTTP basic auth.
	APIKey    string
	APISecret string
}

// ClientInfo is the subset of EMQX client fields the core cares about.
type ClientInfo struct {
	ClientID    string `json:"clientid"`
	Username    string `json:"username"`
	Connected   bool   `json:"connected"`
	IPAddress   string `json:"ip_address"`
	ConnectedAt string `json:"connected_at"`
}

// clientsResponse is the envelope of GET /api/v5/clients.
type clientsResponse struct {
	Data []ClientInfo `json:"data"`
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
}

// Client queries a broker's EMQX management API for connection status.
//
// Status information is advisory: every query degrades to an empty
// result on timeout, auth failure or connection refusal, with a warning
// logged. Callers must treat "not listed" as "status unknown", never as
// an ingestion error.
type Client struct {
	http   *resty.Client
	logger *logging.Logger
}

// New creates a Client for one broker's management API.
func New(cfg Config, logger *logging.Logger) *Client {
	http := resty.New().
		SetBaseURL(fmt.Sprintf("http://%s:%d", cfg.Host, cfg.APIPort)).
		SetBasicAuth(cfg.APIKey, cfg.APISecret).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")

	return &Client{http: http, logger: logger}
}

// ListClients returns all clients currently known to the broker.
//
// Pagination is followed transparently. Any failure yields an empty
// slice and a warning.
func (c *Client) ListClients(ctx context.Context) []ClientInfo {
	var all []ClientInfo

	for page := 1; page <= maxPages; page++ {
		var body clientsResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("limit", fmt.Sprintf("%d", defaultPageSize)).
			SetQueryParam("page", fmt.Sprintf("%d", page)).
			SetResult(&body).
			Get("/api/v5/clients")
		if err != nil {
			c.logger.Warn("broker admin API unreachable", "error", err)
			return nil
		}
		if resp.IsError() {
			c.logger.Warn("broker admin API request failed",
				"status", resp.StatusCode(),
			)
			return nil
		}

		all = append(all, body.Data...)
		if len(body.Data) < defaultPageSize {
			break
		}
	}

	return all
}

// ConnectedClientIDs returns the IDs of currently connected clients.
func (c *Client) ConnectedClientIDs(ctx context.Context) []string {
	clients := c.ListClients(ctx)
	ids := make([]string, 0, len(clients))
	for _, cl := range clients {
		if cl.Connected {
			ids = append(ids, cl.ClientID)
		}
	}
	return ids
}

// IsClientOnline reports whether the given client ID is connected.
// Unknown status (including API failure) reports false.
func (c *Client) IsClientOnline(ctx context.Context, clientID string) bool {
	for _, cl := range c.ListClients(ctx) {
		if cl.ClientID == clientID {
			return cl.Connected
		}
	}
	return false
}

// Test verifies admin API connectivity and credentials.
//
// Unlike the query methods, Test surfaces failures: it exists so the
// management plane can validate a credential before activating it.
//
// Returns:
//   - int: The broker's connected-client count
//   - error: If the API is unreachable or rejects the credentials
func (c *Client) Test(ctx context.Context) (int, error) {
	var body clientsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		SetResult(&body).
		Get("/api/v5/clients")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return 0, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode())
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode())
	}

	return body.Meta.Count, nil
}
