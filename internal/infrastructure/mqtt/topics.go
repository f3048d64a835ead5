package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the ingress message bus.
//
// All topics use the flat scheme: iotbus/{category}/{...}
const (
	// TopicPrefix is the base for all bus topics.
	TopicPrefix = "iotbus"

	// TopicPrefixDirectory is the base for device-directory topics.
	TopicPrefixDirectory = "iotbus/directory"

	// TopicPrefixRelay is the base for outbound relay topics.
	TopicPrefixRelay = "iotbus/relay"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "iotbus/system"
)

// Topics provides builders for ingress bus MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	lookupTopic := topics.DirectoryLookup()
//	// Returns: "iotbus/directory/lookup"
type Topics struct{}

// =============================================================================
// Directory Topics
// =============================================================================

// DirectoryLookup returns the topic for device-info lookup requests.
//
// Example: iotbus/directory/lookup
func (Topics) DirectoryLookup() string {
	return fmt.Sprintf("%s/lookup", TopicPrefixDirectory)
}

// DirectoryReply returns the topic a lookup reply arrives on.
// The last segment is the correlation id carried by the request.
//
// Example: iotbus/directory/reply/req-abc123
func (Topics) DirectoryReply(requestID string) string {
	return fmt.Sprintf("%s/reply/%s", TopicPrefixDirectory, requestID)
}

// DirectoryReplies returns the wildcard pattern matching all lookup replies.
//
// Example: iotbus/directory/reply/+
func (Topics) DirectoryReplies() string {
	return fmt.Sprintf("%s/reply/+", TopicPrefixDirectory)
}

// DirectoryDeviceAdded returns the topic for device-added notifications.
//
// Example: iotbus/directory/event/added
func (Topics) DirectoryDeviceAdded() string {
	return fmt.Sprintf("%s/event/added", TopicPrefixDirectory)
}

// DirectoryDeviceRemoved returns the topic for device-removed notifications.
//
// Example: iotbus/directory/event/removed
func (Topics) DirectoryDeviceRemoved() string {
	return fmt.Sprintf("%s/event/removed", TopicPrefixDirectory)
}

// =============================================================================
// Ingest and Relay Topics
// =============================================================================

// Ingest returns the topic for validated telemetry hand-off.
//
// Example: iotbus/ingest/device-01
func (Topics) Ingest(deviceID string) string {
	return fmt.Sprintf("%s/ingest/%s", TopicPrefix, deviceID)
}

// RelayDevice returns the topic for a unicast message relay.
//
// Example: iotbus/relay/device/device-02
func (Topics) RelayDevice(targetID string) string {
	return fmt.Sprintf("%s/device/%s", TopicPrefixRelay, targetID)
}

// RelayGroup returns the topic for a group message relay.
//
// Example: iotbus/relay/group/bedroom-lights
func (Topics) RelayGroup(group string) string {
	return fmt.Sprintf("%s/group/%s", TopicPrefixRelay, group)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the retained online/offline status topic (also LWT).
//
// Example: iotbus/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// ReplyRequestID extracts the correlation id from a directory reply topic.
//
// Returns the id and true for topics of the form
// "iotbus/directory/reply/{id}", or "" and false for anything else.
func ReplyRequestID(topic string) (string, bool) {
	prefix := TopicPrefixDirectory + "/reply/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := topic[len(prefix):]
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
