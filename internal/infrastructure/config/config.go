package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the ingress gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Directory DirectoryConfig `yaml:"directory"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GatewayConfig contains the HTTP ingress endpoint settings.
type GatewayConfig struct {
	Host             string          `yaml:"host"`
	Port             int             `yaml:"port"`
	DataPath         string          `yaml:"data_path"`
	MessagePath      string          `yaml:"message_path"`
	GroupMessagePath string          `yaml:"group_message_path"`
	Auth             BasicAuthConfig `yaml:"auth"`
	Lookup           LookupConfig    `yaml:"lookup"`
	Timeouts         GatewayTimeouts `yaml:"timeouts"`
	TLS              TLSConfig       `yaml:"tls"`
}

// BasicAuthConfig contains HTTP Basic authentication credentials.
// Authentication is enabled when Username is non-empty. An empty Password
// means the username alone is sufficient.
type BasicAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LookupConfig controls the device-directory lookup race.
type LookupConfig struct {
	// Timeout is how long to wait for a directory reply, in seconds.
	Timeout int `yaml:"timeout"`

	// TimeoutStatus is the HTTP status returned when a lookup times out.
	// 504 is the canonical choice; 401 is accepted for deployments that
	// treat a timeout as a rejection.
	TimeoutStatus int `yaml:"timeout_status"`
}

// GatewayTimeouts contains HTTP server timeout settings, in seconds.
type GatewayTimeouts struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// TLSConfig contains TLS certificate settings for the HTTP listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DirectoryConfig contains device-directory client settings.
type DirectoryConfig struct {
	Cache DirectoryCacheConfig `yaml:"cache"`
}

// DirectoryCacheConfig controls the local authorization cache.
// When enabled, registered devices are resolved from the in-process cache
// (fed by directory add/remove events) instead of an async lookup.
type DirectoryCacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// SeedFile is an optional JSON file holding the initial device list
	// used to bulk-populate the cache at startup.
	SeedFile string `yaml:"seed_file"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default endpoint paths, used when the configured values are empty.
const (
	DefaultDataPath         = "/http/data"
	DefaultMessagePath      = "/http/message"
	DefaultGroupMessagePath = "/http/groupmessage"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: INGRESS_SECTION_KEY
// For example: INGRESS_MQTT_HOST, INGRESS_GATEWAY_USERNAME
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Empty endpoint paths fall back to the static defaults, and every
	// path is normalised to carry a leading slash.
	applyPathDefaults(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			DataPath:         DefaultDataPath,
			MessagePath:      DefaultMessagePath,
			GroupMessagePath: DefaultGroupMessagePath,
			Lookup: LookupConfig{
				Timeout:       10,
				TimeoutStatus: 504,
			},
			Timeouts: GatewayTimeouts{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "iot-ingress",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: INGRESS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Gateway credentials
	if v := os.Getenv("INGRESS_GATEWAY_USERNAME"); v != "" {
		cfg.Gateway.Auth.Username = v
	}
	if v := os.Getenv("INGRESS_GATEWAY_PASSWORD"); v != "" {
		cfg.Gateway.Auth.Password = v
	}

	// MQTT
	if v := os.Getenv("INGRESS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("INGRESS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("INGRESS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// applyPathDefaults fills empty endpoint paths with the static defaults and
// ensures every configured path starts with a slash.
func applyPathDefaults(cfg *Config) {
	if cfg.Gateway.DataPath == "" {
		cfg.Gateway.DataPath = DefaultDataPath
	}
	if cfg.Gateway.MessagePath == "" {
		cfg.Gateway.MessagePath = DefaultMessagePath
	}
	if cfg.Gateway.GroupMessagePath == "" {
		cfg.Gateway.GroupMessagePath = DefaultGroupMessagePath
	}

	cfg.Gateway.DataPath = ensureLeadingSlash(cfg.Gateway.DataPath)
	cfg.Gateway.MessagePath = ensureLeadingSlash(cfg.Gateway.MessagePath)
	cfg.Gateway.GroupMessagePath = ensureLeadingSlash(cfg.Gateway.GroupMessagePath)
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Gateway validation
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		errs = append(errs, "gateway.port must be between 1 and 65535")
	}
	if c.Gateway.Lookup.Timeout < 1 {
		errs = append(errs, "gateway.lookup.timeout must be at least 1 second")
	}
	if s := c.Gateway.Lookup.TimeoutStatus; s != 504 && s != 401 {
		errs = append(errs, "gateway.lookup.timeout_status must be 504 or 401")
	}
	if c.Gateway.TLS.Enabled && (c.Gateway.TLS.CertFile == "" || c.Gateway.TLS.KeyFile == "") {
		errs = append(errs, "gateway.tls requires cert_file and key_file when enabled")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Idle) * time.Second
}

// GetLookupTimeout returns the device-lookup timeout as a Duration.
func (c *Config) GetLookupTimeout() time.Duration {
	return time.Duration(c.Gateway.Lookup.Timeout) * time.Second
}
