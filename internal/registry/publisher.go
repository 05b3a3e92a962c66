package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/infrastructure/mqtt"
	"github.com/fieldsense/fieldsense-core/internal/session"
)

// Publisher sends operator commands to devices through tenant sessions.
//
// Publishing is readiness-gated: a missing or disconnected session is
// started and polled until connected, bounded by the session's
// configured readiness timeout. A broker that accepts the send but never
// acknowledges it within the ack bound is logged, not failed, since the
// message has already left the process.
type Publisher struct {
	registry *Registry
	logger   *logging.Logger
}

// NewPublisher creates a Publisher over the registry's sessions.
func NewPublisher(registry *Registry, logger *logging.Logger) *Publisher {
	return &Publisher{registry: registry, logger: logger}
}

// Publish sends a payload to a topic on the tenant's broker.
//
// Parameters:
//   - ctx: Bounds the readiness wait; cancellation unblocks promptly
//   - tenantID: The tenant whose session carries the message
//   - topic: Destination topic
//   - data: Message payload
//   - qos: Quality of Service level (0, 1, or 2)
//
// Returns:
//   - error: ErrNotConnected when the session never reached the
//     connected state within bounds; ErrPublishRejected when the broker
//     refused the message; nil on success or ack timeout
func (p *Publisher) Publish(ctx context.Context, tenantID, topic string, data []byte, qos byte) error {
	sess, err := p.registry.ensureStarted(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	if !sess.IsConnected() {
		if err := sess.AwaitReady(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNotConnected, err)
		}
	}

	err = sess.Publish(topic, data, qos)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mqtt.ErrTimeout):
		// Send was handed to the network layer; only the ack is missing.
		p.logger.Warn("publish acknowledgment timed out",
			"tenant_id", tenantID,
			"topic", topic,
		)
		return nil
	case errors.Is(err, mqtt.ErrNotConnected), errors.Is(err, session.ErrNotConnected):
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	default:
		return fmt.Errorf("%w: %w", ErrPublishRejected, err)
	}
}
