package subscription

import "time"

// BrokerCredential holds connection details for one MQTT broker, including
// optional management API access. Credentials are provisioned by the
// management plane; the core only ever reads them.
type BrokerCredential struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"-"`

	// Management API access (EMQX admin REST). Optional: when APIKey is
	// empty, online/offline status checks are unavailable for this broker.
	APIPort   int    `json:"api_port,omitempty"`
	APIKey    string `json:"-"`
	APISecret string `json:"-"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TopicSubscription is one tenant's subscription rule: which topics to
// listen on, which broker to use, and optionally how to interpret payload
// fields and where to publish commands.
type TopicSubscription struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`

	// SubscribeTopics is the raw stored topic list. Use topics.ParseList
	// to expand it into individual filters; the format has drifted across
	// provisioning tools (JSON array, newline list, comma list).
	SubscribeTopics string `json:"subscribe_topics"`

	// PublishTopic is the default outbound command topic, if any.
	PublishTopic string `json:"publish_topic,omitempty"`

	// FieldMapping is an optional raw JSON document mapping payload keys
	// to declared sensor types, units and display names. Parsed by the
	// payload package; a malformed document falls back to heuristics.
	FieldMapping string `json:"field_mapping,omitempty"`

	BrokerCredentialID string `json:"broker_credential_id"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
