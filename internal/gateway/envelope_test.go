package gateway

import (
	"testing"
)

func TestParseEnvelope_Data(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDevice string
		wantErr    bool
		wantKind   ValidationKind
	}{
		{
			name:       "valid payload",
			body:       `{"device":"D1","temperature":22.5}`,
			wantDevice: "D1",
		},
		{
			name:     "missing device",
			body:     `{"temperature":22.5}`,
			wantErr:  true,
			wantKind: MissingRequiredField,
		},
		{
			name:     "empty device",
			body:     `{"device":""}`,
			wantErr:  true,
			wantKind: MissingRequiredField,
		},
		{
			name:     "malformed body",
			body:     `{device: D1}`,
			wantErr:  true,
			wantKind: MalformedBody,
		},
		{
			name:     "non-object body",
			body:     `"just a string"`,
			wantErr:  true,
			wantKind: MalformedBody,
		},
		{
			name:     "empty body",
			body:     ``,
			wantErr:  true,
			wantKind: MalformedBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, verr := ParseEnvelope(KindData, []byte(tt.body))
			if tt.wantErr {
				if verr == nil {
					t.Fatal("expected validation error, got nil")
				}
				if verr.Kind != tt.wantKind {
					t.Errorf("Kind = %v, want %v", verr.Kind, tt.wantKind)
				}
				if verr.Message != msgInvalidData {
					t.Errorf("Message = %q, want the fixed data failure text", verr.Message)
				}
				return
			}
			if verr != nil {
				t.Fatalf("ParseEnvelope() error = %v", verr)
			}
			if env.Device != tt.wantDevice {
				t.Errorf("Device = %q, want %q", env.Device, tt.wantDevice)
			}
			if env.Kind != KindData {
				t.Errorf("Kind = %v, want KindData", env.Kind)
			}
		})
	}
}

func TestParseEnvelope_Message(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		wantGroup   string
		wantErr     bool
	}{
		{
			name:        "string command",
			body:        `{"device":"D1","target":"D2","command":"TURNOFF"}`,
			wantMessage: "TURNOFF",
		},
		{
			name:        "string message field",
			body:        `{"device":"D1","target":"D2","message":"PING"}`,
			wantMessage: "PING",
		},
		{
			name:        "command wins over message",
			body:        `{"device":"D1","target":"D2","command":"A","message":"B"}`,
			wantMessage: "A",
		},
		{
			name:        "object command carries its JSON text",
			body:        `{"device":"D1","target":"D2","command":{"set": "off", "dim": 0}}`,
			wantMessage: `{"set":"off","dim":0}`,
		},
		{
			name:        "device group hint",
			body:        `{"device":"D1","target":"D2","command":"X","deviceGroup":"floor2"}`,
			wantMessage: "X",
			wantGroup:   "floor2",
		},
		{
			name:    "missing target",
			body:    `{"device":"D1","command":"TURNOFF"}`,
			wantErr: true,
		},
		{
			name:    "missing payload",
			body:    `{"device":"D1","target":"D2"}`,
			wantErr: true,
		},
		{
			name:    "null command",
			body:    `{"device":"D1","target":"D2","command":null}`,
			wantErr: true,
		},
		{
			name:    "empty object command",
			body:    `{"device":"D1","target":"D2","command":{}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, verr := ParseEnvelope(KindMessage, []byte(tt.body))
			if tt.wantErr {
				if verr == nil {
					t.Fatal("expected validation error, got nil")
				}
				if verr.Message != msgInvalidMessage {
					t.Errorf("Message = %q, want the fixed message failure text", verr.Message)
				}
				return
			}
			if verr != nil {
				t.Fatalf("ParseEnvelope() error = %v", verr)
			}
			if env.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", env.Message, tt.wantMessage)
			}
			if env.DeviceGroup != tt.wantGroup {
				t.Errorf("DeviceGroup = %q, want %q", env.DeviceGroup, tt.wantGroup)
			}
		})
	}
}

func TestParseEnvelope_GroupMessage(t *testing.T) {
	env, verr := ParseEnvelope(KindGroupMessage, []byte(`{"device":"D1","target":"lights","message":"ALL_ON"}`))
	if verr != nil {
		t.Fatalf("ParseEnvelope() error = %v", verr)
	}
	if env.Target != "lights" {
		t.Errorf("Target = %q, want lights", env.Target)
	}
	if env.Message != "ALL_ON" {
		t.Errorf("Message = %q, want ALL_ON", env.Message)
	}

	_, verr = ParseEnvelope(KindGroupMessage, []byte(`{"device":"D1","message":"ALL_ON"}`))
	if verr == nil {
		t.Fatal("expected validation error for missing target")
	}
	if verr.Message != msgInvalidGroupMessage {
		t.Errorf("Message = %q, want the fixed group failure text", verr.Message)
	}
}

func TestParseEnvelope_RawIsCompact(t *testing.T) {
	env, verr := ParseEnvelope(KindData, []byte("{\n  \"device\": \"D1\",\n  \"v\": 1\n}"))
	if verr != nil {
		t.Fatalf("ParseEnvelope() error = %v", verr)
	}
	if string(env.Raw) != `{"device":"D1","v":1}` {
		t.Errorf("Raw = %q, want compact JSON", env.Raw)
	}
}

func TestEndpointKind_String(t *testing.T) {
	tests := []struct {
		kind EndpointKind
		want string
	}{
		{KindData, "data"},
		{KindMessage, "message"},
		{KindGroupMessage, "group_message"},
		{EndpointKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
