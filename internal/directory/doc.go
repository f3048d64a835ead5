// Package directory resolves device authorization against the external
// device directory.
//
// The directory itself lives on the other side of the message bus; this
// package owns the client half of its request/reply protocol:
//
//  1. The gateway publishes a lookup request carrying a fresh correlation
//     id to iotbus/directory/lookup.
//  2. The directory answers on iotbus/directory/reply/{correlation id}
//     with the device record, or an empty body for an unknown device.
//  3. The client races that reply against a configurable timeout. Exactly
//     one branch resolves a lookup; whichever loses the race is inert.
//
// A timed-out lookup deregisters its correlation id, so a late reply is
// dropped by the reply router instead of resurrecting a finished request,
// and the pending table cannot accumulate stale entries.
//
// The optional Cache short-circuits the round-trip entirely: it is an
// in-process map of registered devices maintained by directory add/remove
// events, queried synchronously, never touching the network.
package directory
