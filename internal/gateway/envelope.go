package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EndpointKind identifies which ingress endpoint a request arrived on.
// Each kind carries its own required-field set.
type EndpointKind int

const (
	// KindData is the telemetry ingest endpoint.
	KindData EndpointKind = iota

	// KindMessage is the unicast message/command endpoint.
	KindMessage

	// KindGroupMessage is the group message endpoint.
	KindGroupMessage
)

// String returns the endpoint kind as a metric-friendly label.
func (k EndpointKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindMessage:
		return "message"
	case KindGroupMessage:
		return "group_message"
	default:
		return "unknown"
	}
}

// Fixed validation failure texts, returned verbatim to the caller.
const (
	msgInvalidData = `Invalid data sent. Data must be a valid JSON String with at least a "device" field which corresponds to a registered Device ID.`

	msgInvalidMessage = `Invalid message or command. Message must be a valid JSON String with "device" ,"target" and "message" fields. "target" is a registered Device ID. "message" is the payload.`

	msgInvalidGroupMessage = `Invalid group message. Message must be a valid JSON String with "device" ,"target" and "message" fields. "target" is the name of a device group. "message" is the payload.`
)

// Envelope is a validated inbound request. It is built once per request
// by ParseEnvelope and immutable thereafter.
type Envelope struct {
	// Kind is the endpoint the request arrived on.
	Kind EndpointKind

	// Device is the sending device ID. Always non-empty.
	Device string

	// Target is the recipient: a device ID for message requests, a
	// group name for group message requests. Empty for data requests.
	Target string

	// Message is the resolved payload text. String payloads are
	// unquoted; object payloads carry their JSON text. Empty for data
	// requests.
	Message string

	// DeviceGroup is the optional group hint on message requests.
	DeviceGroup string

	// Raw is the request body as compact JSON, used for ingest
	// hand-off and response echoes.
	Raw []byte
}

// inboundBody is the wire shape shared by all three endpoints. The
// payload fields stay raw so string and object values can both be
// carried through.
type inboundBody struct {
	Device      string          `json:"device"`
	Target      string          `json:"target"`
	Command     json.RawMessage `json:"command"`
	Message     json.RawMessage `json:"message"`
	DeviceGroup string          `json:"deviceGroup"`
}

// ParseEnvelope validates a raw request body against the required
// fields of the given endpoint kind.
//
// Returns:
//   - *Envelope: The validated envelope, nil on failure
//   - *ValidationError: Carries the fixed failure text for the endpoint
func ParseEnvelope(kind EndpointKind, body []byte) (*Envelope, *ValidationError) {
	failText := validationText(kind)

	var in inboundBody
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, &ValidationError{Kind: MalformedBody, Message: failText}
	}

	env := &Envelope{
		Kind:        kind,
		Device:      in.Device,
		Target:      in.Target,
		DeviceGroup: in.DeviceGroup,
		Raw:         compactJSON(body),
	}

	switch kind {
	case KindData:
		if in.Device == "" {
			return nil, &ValidationError{Kind: MissingRequiredField, Message: failText}
		}
	case KindMessage, KindGroupMessage:
		env.Message = resolvePayload(in.Command, in.Message)
		if in.Device == "" || in.Target == "" || env.Message == "" {
			return nil, &ValidationError{Kind: MissingRequiredField, Message: failText}
		}
	}

	return env, nil
}

// validationText returns the fixed failure message for an endpoint.
func validationText(kind EndpointKind) string {
	switch kind {
	case KindMessage:
		return msgInvalidMessage
	case KindGroupMessage:
		return msgInvalidGroupMessage
	default:
		return msgInvalidData
	}
}

// resolvePayload picks the outbound payload text from the command and
// message fields. Command wins when both are present. String values are
// unquoted; objects and arrays keep their JSON text; null, empty
// strings, and empty composites resolve to "".
func resolvePayload(command, message json.RawMessage) string {
	if text := payloadText(command); text != "" {
		return text
	}
	return payloadText(message)
}

func payloadText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}

	compact := string(compactJSON(raw))
	if compact == "{}" || compact == "[]" {
		return ""
	}
	return compact
}

// compactJSON strips insignificant whitespace from a JSON document.
// Invalid input is returned unchanged.
func compactJSON(src []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return src
	}
	return buf.Bytes()
}
