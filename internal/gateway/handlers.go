package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/iot-ingress/internal/directory"
)

// Authorizer decides whether a device may use the gateway. Implemented
// by directory.Client.
type Authorizer interface {
	Lookup(ctx context.Context, deviceID string) (directory.Outcome, directory.Record)
}

// Forwarder hands validated payloads to the message bus. Implemented by
// relay.Relay.
type Forwarder interface {
	PublishData(deviceID string, payload []byte) error
	RelayToDevice(targetID, message, group string) error
	RelayToGroup(group, message string) error
}

// Response bodies shared across handlers.
const (
	msgInternalError = "An unexpected error has occurred. Please contact support.\n"
	msgNotRegistered = "Device not registered. Device ID: %s\n"
)

// handleData accepts a telemetry payload and forwards it to the ingest
// topic for the sending device.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := responderFrom(r, w)

	env, ok := s.readEnvelope(KindData, resp, r, start)
	if !ok {
		return
	}
	if !s.authorize(r, resp, KindData, start, env.Device) {
		return
	}

	if err := s.relay.PublishData(env.Device, env.Raw); err != nil {
		s.logger.Error("publishing device data failed",
			"device", env.Device,
			"error", err,
		)
		s.finish(resp, KindData, start, http.StatusInternalServerError, msgInternalError)
		return
	}

	s.finish(resp, KindData, start, http.StatusOK,
		fmt.Sprintf("Data Received. Device ID: %s. Data: %s\n", env.Device, env.Raw))
	s.logger.Info("data received", "device", env.Device)
}

// handleMessage accepts a unicast message/command and relays it to the
// target device.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := responderFrom(r, w)

	env, ok := s.readEnvelope(KindMessage, resp, r, start)
	if !ok {
		return
	}
	if !s.authorize(r, resp, KindMessage, start, env.Device) {
		return
	}

	if err := s.relay.RelayToDevice(env.Target, env.Message, env.DeviceGroup); err != nil {
		s.logger.Error("relaying message failed",
			"source", env.Device,
			"target", env.Target,
			"error", err,
		)
		s.finish(resp, KindMessage, start, http.StatusInternalServerError, msgInternalError)
		return
	}

	s.finish(resp, KindMessage, start, http.StatusOK,
		fmt.Sprintf("Message Received. Device ID: %s. Message: %s\n", env.Device, env.Raw))
	s.logger.Info("message sent",
		"source", env.Device,
		"target", env.Target,
	)
}

// handleGroupMessage accepts a message addressed to a device group and
// relays it; group membership resolution is owned by the fabric.
func (s *Server) handleGroupMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := responderFrom(r, w)

	env, ok := s.readEnvelope(KindGroupMessage, resp, r, start)
	if !ok {
		return
	}
	if !s.authorize(r, resp, KindGroupMessage, start, env.Device) {
		return
	}

	if err := s.relay.RelayToGroup(env.Target, env.Message); err != nil {
		s.logger.Error("relaying group message failed",
			"source", env.Device,
			"group", env.Target,
			"error", err,
		)
		s.finish(resp, KindGroupMessage, start, http.StatusInternalServerError, msgInternalError)
		return
	}

	s.finish(resp, KindGroupMessage, start, http.StatusOK,
		fmt.Sprintf("Group Message Received. Device ID: %s. Message: %s\n", env.Device, env.Raw))
	s.logger.Info("group message sent",
		"source", env.Device,
		"group", env.Target,
	)
}

// handleNotFound answers every unmatched path, echoing it back.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	resp := responderFrom(r, w)
	if resp.respond(http.StatusNotFound, fmt.Sprintf("Invalid Path. %s Not Found\n", r.URL.Path)) {
		s.metrics.observeRequest("unmatched", http.StatusNotFound, 0)
	}
}

// handleHealth reports liveness. No auth required.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write
	io.WriteString(w, "ok\n")
}

// readEnvelope reads and validates the request body. On failure it
// writes the response itself and returns false.
func (s *Server) readEnvelope(kind EndpointKind, resp *responder, r *http.Request, start time.Time) (*Envelope, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("reading request body failed",
			"endpoint", kind.String(),
			"error", err,
		)
		s.finish(resp, kind, start, http.StatusInternalServerError, msgInternalError)
		return nil, false
	}

	env, verr := ParseEnvelope(kind, body)
	if verr != nil {
		s.logger.Error("invalid request payload",
			"endpoint", kind.String(),
			"error", verr,
		)
		s.finish(resp, kind, start, http.StatusBadRequest, verr.Message+"\n")
		return nil, false
	}
	return env, true
}

// authorize gates the request on the device directory. On anything but
// an authorized outcome it writes the response itself and returns
// false.
func (s *Server) authorize(r *http.Request, resp *responder, kind EndpointKind, start time.Time, deviceID string) bool {
	outcome, _ := s.directory.Lookup(r.Context(), deviceID)
	s.metrics.observeAuthorization(outcome.String())

	switch outcome {
	case directory.OutcomeAuthorized:
		return true
	case directory.OutcomeTimedOut:
		s.logger.Warn("device lookup timed out", "device", deviceID)
		s.finish(resp, kind, start, s.timeoutStatus(), fmt.Sprintf(msgNotRegistered, deviceID))
		return false
	default:
		s.logger.Info("HTTP Gateway - Access Denied. Unauthorized Device", "device", deviceID)
		s.finish(resp, kind, start, http.StatusUnauthorized, fmt.Sprintf(msgNotRegistered, deviceID))
		return false
	}
}

// finish writes the terminal response and records request metrics if
// this call won the claim.
func (s *Server) finish(resp *responder, kind EndpointKind, start time.Time, status int, body string) {
	if resp.respond(status, body) {
		s.metrics.observeRequest(kind.String(), status, time.Since(start))
	}
}

// timeoutStatus returns the configured HTTP status for a lookup
// timeout, defaulting to 504 Gateway Timeout.
func (s *Server) timeoutStatus() int {
	if s.cfg.Lookup.TimeoutStatus != 0 {
		return s.cfg.Lookup.TimeoutStatus
	}
	return http.StatusGatewayTimeout
}
