package directory

import "encoding/json"

// Record is a device record as returned by the device directory.
//
// The directory owns the schema; the gateway treats records as opaque
// beyond the "_id" key, which identifies the device. Present-vs-absent is
// the only semantic the authorization gate relies on.
type Record map[string]any

// ID returns the record's device identifier, or "" if the record has no
// usable "_id" field.
func (r Record) ID() string {
	v, ok := r["_id"]
	if !ok {
		return ""
	}
	id, ok := v.(string)
	if !ok {
		return ""
	}
	return id
}

// decodeRecord parses a directory payload into a Record.
//
// Empty payloads and JSON null decode to a nil Record, which lookup
// treats as "device not registered".
func decodeRecord(payload []byte) (Record, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Outcome is the result of a device authorization lookup.
type Outcome int

const (
	// OutcomeAuthorized means the device is registered in the directory.
	OutcomeAuthorized Outcome = iota

	// OutcomeUnauthorized means the directory answered and the device is
	// not registered.
	OutcomeUnauthorized

	// OutcomeTimedOut means no directory reply arrived within the
	// configured timeout (or the directory was unreachable).
	OutcomeTimedOut
)

// String returns a human-readable outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// lookupRequest is the wire format of a device-info request.
type lookupRequest struct {
	RequestID string `json:"request_id"`
	DeviceID  string `json:"device_id"`
}
