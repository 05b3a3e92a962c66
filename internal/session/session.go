package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldsense/fieldsense-core/internal/device"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/config"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/mqtt"
	"github.com/fieldsense/fieldsense-core/internal/payload"
	"github.com/fieldsense/fieldsense-core/internal/sensor"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
	"github.com/fieldsense/fieldsense-core/internal/topics"
)

// State is the session's connection lifecycle state.
type State string

// Session states. Transitions: Disconnected → Connecting → Connected,
// and back to Disconnected on any connection loss or Stop. There is no
// automatic path out of Disconnected; only an explicit Start moves on.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Broker is the subset of the MQTT client a session drives. Satisfied by
// *mqtt.Client; faked in tests.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
	AwaitConnected(ctx context.Context, timeout, poll time.Duration) error
	SetOnDisconnect(callback func(err error))
	Close() error
}

// Dialer establishes a broker connection. The default wraps mqtt.Connect.
type Dialer func(opts mqtt.Options) (Broker, error)

// defaultDialer connects via the real MQTT client.
func defaultDialer(opts mqtt.Options) (Broker, error) {
	return mqtt.Connect(opts)
}

// message is one inbound MQTT message queued for processing.
type message struct {
	topic   string
	payload []byte
}

// Deps bundles the collaborators a session needs.
type Deps struct {
	Subs     subscription.Repository
	Resolver *device.Resolver
	Parser   *payload.Parser
	Store    *sensor.Store
	Logger   *logging.Logger

	// Dialer overrides broker connection establishment; nil uses the
	// real MQTT client.
	Dialer Dialer
}

// Session owns one tenant's broker connection and ingest pipeline.
//
// Inbound messages are pushed onto a bounded queue by the network
// callback and drained by a single consumer goroutine, so a tenant's
// messages are always processed serially and in arrival order. A full
// queue drops new messages with a warning rather than blocking the
// network loop.
//
// Lifecycle methods (Start, Stop) are not safe for concurrent use with
// each other; the registry serializes them per tenant.
type Session struct {
	tenantID string
	service  config.ServiceConfig
	ingest   config.IngestConfig
	publish  config.PublishConfig
	deps     Deps

	stateMu sync.RWMutex
	state   State

	broker Broker
	queue  chan message
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// rulesBySubscription holds the parsed field mapping of each active
	// rule, populated at Start. defaultRules applies to messages whose
	// device carries no subscription linkage when exactly one rule exists.
	rulesBySubscription map[string]map[string]payload.FieldRule
	defaultRules        map[string]payload.FieldRule
}

// New creates a Session for one tenant. The session starts Disconnected.
func New(tenantID string, service config.ServiceConfig, ingest config.IngestConfig, publishCfg config.PublishConfig, deps Deps) *Session {
	if deps.Dialer == nil {
		deps.Dialer = defaultDialer
	}
	return &Session{
		tenantID: tenantID,
		service:  service,
		ingest:   ingest,
		publish:  publishCfg,
		deps:     deps,
		state:    StateDisconnected,
	}
}

// TenantID returns the tenant this session belongs to.
func (s *Session) TenantID() string {
	return s.tenantID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Start connects the session: loads the tenant's active subscription
// rules, connects to the broker the first rule references, subscribes to
// every parsed topic filter, and launches the consumer goroutine.
//
// Returns:
//   - error: ErrNoSubscriptions when the tenant has no active rules;
//     ErrAlreadyStarted on a live session; ErrConnectFailed (wrapped)
//     when the broker is unreachable
func (s *Session) Start(ctx context.Context) error {
	if s.State() != StateDisconnected {
		return ErrAlreadyStarted
	}

	// A lost connection flips the state but leaves the previous broker,
	// queue and consumer in place. Release them before dialing again, or
	// the orphaned consumer would drain the new queue alongside the new
	// one and Stop would wait on it forever.
	if s.broker != nil || s.cancel != nil {
		s.teardown()
	}

	rules, err := s.deps.Subs.ListActiveByTenant(ctx, s.tenantID)
	if err != nil {
		return fmt.Errorf("loading subscription rules: %w", err)
	}
	if len(rules) == 0 {
		return ErrNoSubscriptions
	}

	cred, err := s.resolveCredential(ctx, rules)
	if err != nil {
		return err
	}

	s.setState(StateConnecting)
	s.loadFieldRules(rules)

	broker, err := s.deps.Dialer(mqtt.Options{
		Host:       cred.Host,
		Port:       cred.Port,
		ClientID:   s.service.ClientIDPrefix + "-" + s.tenantID,
		Username:   cred.Username,
		Password:   cred.Password,
		AckTimeout: s.publish.GetAckTimeout(),
	})
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	s.broker = broker

	broker.SetOnDisconnect(func(err error) {
		s.setState(StateDisconnected)
		s.deps.Logger.Warn("broker connection lost",
			"tenant_id", s.tenantID,
			"error", err,
		)
	})

	consumerCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.queue = make(chan message, s.ingest.QueueSize)

	s.wg.Add(1)
	go s.consume(consumerCtx)

	if err := s.subscribeAll(rules); err != nil {
		s.teardown()
		return err
	}

	s.setState(StateConnected)
	s.deps.Logger.Info("session started",
		"tenant_id", s.tenantID,
		"rules", len(rules),
		"broker", cred.Host,
	)

	return nil
}

// resolveCredential picks the broker credential for this session. All
// rules are expected to share one; when they do not, the first rule wins
// and the divergence is logged.
func (s *Session) resolveCredential(ctx context.Context, rules []subscription.TopicSubscription) (*subscription.BrokerCredential, error) {
	first := rules[0].BrokerCredentialID
	for _, rule := range rules[1:] {
		if rule.BrokerCredentialID != first {
			s.deps.Logger.Warn("subscription rules reference multiple brokers, using first",
				"tenant_id", s.tenantID,
				"using", first,
				"ignored", rule.BrokerCredentialID,
			)
			break
		}
	}

	cred, err := s.deps.Subs.GetCredential(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("loading broker credential: %w", err)
	}
	return cred, nil
}

// loadFieldRules parses each rule's field-mapping document once.
// Malformed documents log a warning and fall back to heuristics.
func (s *Session) loadFieldRules(rules []subscription.TopicSubscription) {
	s.rulesBySubscription = make(map[string]map[string]payload.FieldRule, len(rules))
	s.defaultRules = nil

	for _, rule := range rules {
		parsed, err := payload.ParseFieldRules(rule.FieldMapping)
		if err != nil {
			s.deps.Logger.Warn("malformed field mapping, using heuristics",
				"tenant_id", s.tenantID,
				"subscription_id", rule.ID,
				"error", err,
			)
			continue
		}
		if parsed != nil {
			s.rulesBySubscription[rule.ID] = parsed
		}
	}

	if len(rules) == 1 {
		s.defaultRules = s.rulesBySubscription[rules[0].ID]
	}
}

// subscribeAll subscribes to the union of all rules' topic filters.
func (s *Session) subscribeAll(rules []subscription.TopicSubscription) error {
	seen := make(map[string]struct{})
	qos := byte(s.ingest.QoS) // validated to 0..2 at config load

	for _, rule := range rules {
		for _, filter := range topics.ParseList(rule.SubscribeTopics) {
			if _, dup := seen[filter]; dup {
				continue
			}
			seen[filter] = struct{}{}

			if err := s.broker.Subscribe(filter, qos, s.enqueue); err != nil {
				return fmt.Errorf("subscribing to %q: %w", filter, err)
			}
		}
	}

	if len(seen) == 0 {
		s.deps.Logger.Warn("no usable topic filters in active rules", "tenant_id", s.tenantID)
	}

	return nil
}

// enqueue pushes an inbound message onto the bounded queue without
// blocking the network callback.
func (s *Session) enqueue(topic string, data []byte) error {
	select {
	case s.queue <- message{topic: topic, payload: data}:
	default:
		s.deps.Logger.Warn("ingest queue full, dropping message",
			"tenant_id", s.tenantID,
			"topic", topic,
		)
	}
	return nil
}

// consume drains the queue serially until the session stops. Per-message
// failures log and continue; nothing terminates the loop except Stop.
func (s *Session) consume(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			s.handleMessage(ctx, msg)
		}
	}
}

// handleMessage runs the ingest pipeline for one message:
// resolve device → parse payload → persist readings.
func (s *Session) handleMessage(ctx context.Context, msg message) {
	dev, err := s.deps.Resolver.Resolve(ctx, s.tenantID, msg.topic)
	if err != nil {
		s.deps.Logger.Warn("dropping message, device resolution failed",
			"tenant_id", s.tenantID,
			"topic", msg.topic,
			"error", err,
		)
		return
	}

	rules := s.defaultRules
	if dev.SubscriptionID != nil {
		if r, ok := s.rulesBySubscription[*dev.SubscriptionID]; ok {
			rules = r
		}
	}

	readings := s.deps.Parser.Parse(string(msg.payload), rules)
	if len(readings) == 0 {
		s.deps.Logger.Debug("payload yielded no readings",
			"tenant_id", s.tenantID,
			"topic", msg.topic,
		)
		return
	}

	now := time.Now().UTC()
	for _, r := range readings {
		if _, err := s.deps.Store.Record(ctx, s.tenantID, dev.ID, r, now); err != nil {
			s.deps.Logger.Error("persisting reading failed",
				"tenant_id", s.tenantID,
				"device_id", dev.ID,
				"sensor_type", r.Type,
				"error", err,
			)
		}
	}
}

// AwaitReady blocks until the broker connection is up, bounded by the
// configured readiness timeout and poll interval.
func (s *Session) AwaitReady(ctx context.Context) error {
	if s.broker == nil {
		return ErrNotConnected
	}
	if err := s.broker.AwaitConnected(ctx, s.publish.GetReadyTimeout(), s.publish.GetReadyPollInterval()); err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	return nil
}

// IsConnected reports whether the underlying broker connection is up.
func (s *Session) IsConnected() bool {
	return s.broker != nil && s.broker.IsConnected()
}

// Publish sends a message through the session's broker connection.
// The ack wait is bounded by the broker client; callers decide how to
// treat ack timeouts.
func (s *Session) Publish(topic string, data []byte, qos byte) error {
	if s.broker == nil {
		return ErrNotConnected
	}
	return s.broker.Publish(topic, data, qos, false)
}

// Stop tears the session down: cancels the consumer, closes the broker
// connection, and waits for in-flight work to unwind. Idempotent.
func (s *Session) Stop() {
	if s.State() == StateDisconnected && s.broker == nil {
		return
	}

	s.teardown()
	s.deps.Logger.Info("session stopped", "tenant_id", s.tenantID)
}

// teardown releases the session's resources and resets state.
func (s *Session) teardown() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			s.deps.Logger.Warn("closing broker connection", "tenant_id", s.tenantID, "error", err)
		}
		s.broker = nil
	}
	s.wg.Wait()
	s.setState(StateDisconnected)
}
