// Package gateway provides the HTTP ingress surface for the IoT message
// bus.
//
// It accepts inbound POST requests carrying device telemetry or
// commands, validates them against endpoint-specific required fields,
// gates them on the device directory, and hands validated payloads to
// the relay for publication onto the bus.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := gateway.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Every request receives exactly one response. All handler branches
// write through a claim-once responder, so a late lookup reply, a
// recovered panic, or any other racing path can never produce a second
// write on the same connection.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package gateway
