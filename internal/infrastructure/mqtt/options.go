package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options describes a single broker connection.
//
// Values typically come from a stored broker credential record rather than
// process configuration, since each tenant may point at a different broker.
type Options struct {
	// Host and Port locate the broker's MQTT listener.
	Host string
	Port int

	// ClientID identifies this connection to the broker. Broker-side client
	// listings (and the admin API) key on this value, so callers should make
	// it stable per tenant.
	ClientID string

	// Username and Password are optional broker credentials.
	Username string
	Password string

	// TLS switches the broker URL scheme from tcp:// to ssl://.
	TLS bool

	// AckTimeout bounds the wait for broker acknowledgment of a publish.
	// Zero uses defaultPublishTimeout.
	AckTimeout time.Duration
}

// ackTimeoutOrDefault resolves the publish acknowledgment bound.
func (o Options) ackTimeoutOrDefault() time.Duration {
	if o.AckTimeout > 0 {
		return o.AckTimeout
	}
	return defaultPublishTimeout
}

// buildClientOptions creates paho MQTT options from connection options.
//
// Auto-reconnect and connect-retry are deliberately disabled: a lost
// connection stays lost until the owning session is explicitly restarted.
// Silent reconnection would leave the session's recorded state and the
// broker's view of the client out of step.
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if o.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, o.Host, o.Port))

	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Reconnection is an explicit lifecycle operation, never automatic.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(defaultConnectTimeout)

	// Keepalive - broker sends PINGs to detect dead connections
	opts.SetKeepAlive(defaultKeepAlive)

	if o.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}
