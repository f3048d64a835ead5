package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  host: "127.0.0.1"
  port: 8081
  data_path: "/custom/data"
  auth:
    username: "gateway"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-ingress"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.Port != 8081 {
		t.Errorf("Gateway.Port = %d, want 8081", cfg.Gateway.Port)
	}
	if cfg.Gateway.DataPath != "/custom/data" {
		t.Errorf("Gateway.DataPath = %q, want %q", cfg.Gateway.DataPath, "/custom/data")
	}
	if cfg.Gateway.Auth.Username != "gateway" {
		t.Errorf("Gateway.Auth.Username = %q, want %q", cfg.Gateway.Auth.Username, "gateway")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_PathDefaults(t *testing.T) {
	// Empty paths fall back to the static defaults.
	content := `
gateway:
  port: 8080
  data_path: ""
  message_path: ""
  group_message_path: ""
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.DataPath != DefaultDataPath {
		t.Errorf("DataPath = %q, want %q", cfg.Gateway.DataPath, DefaultDataPath)
	}
	if cfg.Gateway.MessagePath != DefaultMessagePath {
		t.Errorf("MessagePath = %q, want %q", cfg.Gateway.MessagePath, DefaultMessagePath)
	}
	if cfg.Gateway.GroupMessagePath != DefaultGroupMessagePath {
		t.Errorf("GroupMessagePath = %q, want %q", cfg.Gateway.GroupMessagePath, DefaultGroupMessagePath)
	}
}

func TestLoad_PathNormalisation(t *testing.T) {
	// Paths without a leading slash get one prepended.
	content := `
gateway:
  port: 8080
  data_path: "ingest"
  message_path: "relay"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.DataPath != "/ingest" {
		t.Errorf("DataPath = %q, want %q", cfg.Gateway.DataPath, "/ingest")
	}
	if cfg.Gateway.MessagePath != "/relay" {
		t.Errorf("MessagePath = %q, want %q", cfg.Gateway.MessagePath, "/relay")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INGRESS_GATEWAY_USERNAME", "envuser")
	t.Setenv("INGRESS_MQTT_HOST", "env-broker")

	content := `
gateway:
  port: 8080
  auth:
    username: "fileuser"
mqtt:
  broker:
    host: "file-broker"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.Auth.Username != "envuser" {
		t.Errorf("Auth.Username = %q, want env override %q", cfg.Gateway.Auth.Username, "envuser")
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "env-broker")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Gateway.Port = 0 },
			wantErr: "gateway.port",
		},
		{
			name:    "zero lookup timeout",
			mutate:  func(c *Config) { c.Gateway.Lookup.Timeout = 0 },
			wantErr: "gateway.lookup.timeout",
		},
		{
			name:    "bad timeout status",
			mutate:  func(c *Config) { c.Gateway.Lookup.TimeoutStatus = 418 },
			wantErr: "timeout_status",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.MQTT.Broker.ClientID = "" },
			wantErr: "client_id",
		},
		{
			name:    "tls without certs",
			mutate:  func(c *Config) { c.Gateway.TLS.Enabled = true },
			wantErr: "gateway.tls",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetLookupTimeout(); got != 10*time.Second {
		t.Errorf("GetLookupTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
}
