// Package relay hands validated payloads off to the message bus.
//
// It owns the outbound half of the gateway: telemetry ingest, unicast
// message relay, and group message relay. Each call maps to exactly one
// fire-and-forget publish; delivery beyond the broker is the fabric's
// responsibility, and a failed publish is surfaced to the caller rather
// than retried.
package relay

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/iot-ingress/internal/infrastructure/mqtt"
)

// Publisher is the slice of the MQTT client the relay needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Relay publishes ingest and relay payloads onto the bus.
//
// All methods are safe for concurrent use.
type Relay struct {
	bus    Publisher
	qos    byte
	topics mqtt.Topics
}

// New creates a Relay publishing at the given QoS.
func New(bus Publisher, qos byte) (*Relay, error) {
	if bus == nil {
		return nil, fmt.Errorf("relay: bus is required")
	}
	return &Relay{bus: bus, qos: qos}, nil
}

// deviceEnvelope is the wire format of a unicast relay.
type deviceEnvelope struct {
	Message     string `json:"message"`
	DeviceGroup string `json:"device_group,omitempty"`
}

// groupEnvelope is the wire format of a group relay.
type groupEnvelope struct {
	Message string `json:"message"`
}

// PublishData forwards a validated telemetry body to the ingest topic
// for the device. The body is passed through untouched; consumers see
// exactly what the device sent.
func (r *Relay) PublishData(deviceID string, payload []byte) error {
	if err := r.bus.Publish(r.topics.Ingest(deviceID), payload, r.qos, false); err != nil {
		return fmt.Errorf("publishing device data: %w", err)
	}
	return nil
}

// RelayToDevice forwards a message to a single target device. The group
// hint, when non-empty, names the device group the sender used to
// address the target; the fabric uses it for routing.
func (r *Relay) RelayToDevice(targetID, message, group string) error {
	payload, err := json.Marshal(deviceEnvelope{
		Message:     message,
		DeviceGroup: group,
	})
	if err != nil {
		return fmt.Errorf("encoding relay payload: %w", err)
	}

	if err := r.bus.Publish(r.topics.RelayDevice(targetID), payload, r.qos, false); err != nil {
		return fmt.Errorf("relaying to device: %w", err)
	}
	return nil
}

// RelayToGroup forwards a message to every device in a group. Group
// membership resolution is owned by the fabric, not the gateway.
func (r *Relay) RelayToGroup(group, message string) error {
	payload, err := json.Marshal(groupEnvelope{Message: message})
	if err != nil {
		return fmt.Errorf("encoding group relay payload: %w", err)
	}

	if err := r.bus.Publish(r.topics.RelayGroup(group), payload, r.qos, false); err != nil {
		return fmt.Errorf("relaying to group: %w", err)
	}
	return nil
}
