package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
	"github.com/fieldsense/fieldsense-core/internal/subscription"
	"github.com/fieldsense/fieldsense-core/internal/topics"
)

// Resolver maps inbound MQTT topics to devices, auto-provisioning a
// device when no existing one matches.
type Resolver struct {
	devices Repository
	subs    subscription.Repository
	logger  *logging.Logger
}

// NewResolver creates a Resolver.
//
// Parameters:
//   - devices: Device persistence
//   - subs: Subscription rules, used for linkage of new devices
//   - logger: Structured logger (linkage failures are warnings, never errors)
func NewResolver(devices Repository, subs subscription.Repository, logger *logging.Logger) *Resolver {
	return &Resolver{
		devices: devices,
		subs:    subs,
		logger:  logger,
	}
}

// Resolve maps a topic to the tenant's device, creating one if necessary.
//
// The first two topic segments form the candidate space. For topic
// "stm32/3/telemetry" the candidates are tried in order:
//
//	"stm32_3", "3", "stm32", "stm32/3"
//
// The first existing device wins, so richer names take priority over
// bare prefixes. When nothing matches, a device named after the joined
// form ("stm32_3") is created with type "auto" and status "online", and
// the resolver attempts to link it to the subscription rule whose stored
// topic matches the new device's name (exact match first, then
// normalized comparison via topics.NormalizeKey).
//
// Returns:
//   - *Device: The resolved or newly created device
//   - error: ErrUnresolvableTopic for topics with fewer than two
//     segments; persistence errors otherwise
func (r *Resolver) Resolve(ctx context.Context, tenantID, topic string) (*Device, error) {
	parts := splitTopic(topic)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvableTopic, topic)
	}

	prefix, identifier := parts[0], parts[1]
	candidates := []string{
		prefix + "_" + identifier,
		identifier,
		prefix,
		prefix + "/" + identifier,
	}

	for _, name := range candidates {
		d, err := r.devices.GetByName(ctx, tenantID, name)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, ErrDeviceNotFound) {
			return nil, fmt.Errorf("resolving device %q: %w", name, err)
		}
	}

	return r.provision(ctx, tenantID, topic, candidates[0])
}

// provision creates an auto device and attempts subscription linkage.
func (r *Resolver) provision(ctx context.Context, tenantID, topic, name string) (*Device, error) {
	now := time.Now().UTC()
	d := &Device{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Name:       name,
		DeviceType: TypeAuto,
		Status:     StatusOnline,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if subID := r.matchSubscription(ctx, tenantID, name); subID != "" {
		d.SubscriptionID = &subID
	}

	if err := r.devices.Create(ctx, d); err != nil {
		// A concurrent message on the same topic may have created the
		// device first; re-read instead of failing the message.
		if errors.Is(err, ErrDeviceExists) {
			return r.devices.GetByName(ctx, tenantID, name)
		}
		return nil, fmt.Errorf("auto-provisioning device %q: %w", name, err)
	}

	r.logger.Info("auto-provisioned device",
		"tenant_id", tenantID,
		"device", name,
		"topic", topic,
		"linked", d.SubscriptionID != nil,
	)

	return d, nil
}

// matchSubscription finds the subscription rule whose stored topics
// match the device name. The inbound topic often carries trailing
// segments ("stm32/3/data") the configured topic does not, so the
// comparison key is the name derived from it, not the topic itself.
// Exact string comparison runs over all rules first so a precise match
// always beats a fuzzy one; normalized comparison is the fallback. Any
// lookup failure degrades to "no linkage".
func (r *Resolver) matchSubscription(ctx context.Context, tenantID, name string) string {
	rules, err := r.subs.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		r.logger.Warn("subscription linkage lookup failed",
			"tenant_id", tenantID,
			"device", name,
			"error", err,
		)
		return ""
	}

	for _, rule := range rules {
		for _, t := range topics.ParseList(rule.SubscribeTopics) {
			if t == name {
				return rule.ID
			}
		}
	}

	normalized := topics.NormalizeKey(name)
	for _, rule := range rules {
		for _, t := range topics.ParseList(rule.SubscribeTopics) {
			if topics.NormalizeKey(t) == normalized {
				return rule.ID
			}
		}
	}

	return ""
}

// splitTopic splits a topic on '/' dropping empty segments.
func splitTopic(topic string) []string {
	raw := strings.Split(topic, "/")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
