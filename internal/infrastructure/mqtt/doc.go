// Package mqtt provides MQTT client connectivity for the ingress gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway uses MQTT as the messaging fabric connecting it to the
// device directory and to downstream consumers. The broker decouples
// the HTTP ingress from directory and relay implementations.
//
//	HTTP clients → Ingress Gateway ↔ MQTT Broker ↔ Directory / Consumers
//
// The gateway publishes lookup requests, telemetry hand-offs and relays,
// and subscribes to lookup replies and directory-change events.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all directory lookup replies
//	err = client.Subscribe(mqtt.Topics{}.DirectoryReplies(), 1,
//	    func(topic string, payload []byte) error {
//	        return routeReply(topic, payload)
//	    })
//
//	// Hand off validated telemetry
//	topic := mqtt.Topics{}.Ingest("device-01")
//	client.Publish(topic, body, 1, false)
package mqtt
