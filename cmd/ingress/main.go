// IoT Ingress Gateway
//
// This is the main entry point for the ingress gateway. The gateway
// accepts HTTP POST requests carrying device telemetry or commands,
// gates them on the registered-device directory, and forwards validated
// payloads onto the message bus. It also relays outbound messages
// addressed to a single device or a device group.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/iot-ingress/internal/directory"
	"github.com/nerrad567/iot-ingress/internal/gateway"
	"github.com/nerrad567/iot-ingress/internal/infrastructure/config"
	"github.com/nerrad567/iot-ingress/internal/infrastructure/logging"
	"github.com/nerrad567/iot-ingress/internal/infrastructure/mqtt"
	"github.com/nerrad567/iot-ingress/internal/relay"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting IoT ingress gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	qos := byte(cfg.MQTT.QoS)

	// Authorization cache (optional): resolves registered devices
	// locally from directory add/remove events instead of a per-request
	// round-trip.
	var cache *directory.Cache
	if cfg.Directory.Cache.Enabled {
		cache = directory.NewCache()
		cache.SetLogger(log)

		if cfg.Directory.Cache.SeedFile != "" {
			records, seedErr := loadSeedRecords(cfg.Directory.Cache.SeedFile)
			if seedErr != nil {
				return fmt.Errorf("loading cache seed: %w", seedErr)
			}
			cache.Load(records)
			log.Info("authorization cache seeded",
				"path", cfg.Directory.Cache.SeedFile,
				"devices", cache.Count(),
			)
		}

		if bindErr := cache.Bind(mqttClient, qos); bindErr != nil {
			return fmt.Errorf("binding cache to directory events: %w", bindErr)
		}
		log.Info("authorization cache bound to directory events")
	}

	// Directory client for device authorization lookups
	dirClient, err := directory.NewClient(mqttClient, directory.Options{
		Timeout: cfg.GetLookupTimeout(),
		QoS:     qos,
		Cache:   cache,
	})
	if err != nil {
		return fmt.Errorf("creating directory client: %w", err)
	}
	dirClient.SetLogger(log)
	if startErr := dirClient.Start(); startErr != nil {
		return fmt.Errorf("starting directory client: %w", startErr)
	}
	log.Info("directory client started", "lookup_timeout", cfg.GetLookupTimeout())

	// Relay for bus hand-offs
	busRelay, err := relay.New(mqttClient, qos)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}

	// HTTP ingress server
	server, err := gateway.New(gateway.Deps{
		Config:    cfg.Gateway,
		Logger:    log,
		Directory: dirClient,
		Relay:     busRelay,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting gateway: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing gateway", "error", closeErr)
		}
	}()
	log.Info("gateway initialised",
		"address", fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		"data_path", cfg.Gateway.DataPath,
		"message_path", cfg.Gateway.MessagePath,
		"group_message_path", cfg.Gateway.GroupMessagePath,
	)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for a shutdown signal or a listener-level fatal error.
	// Per-request failures are answered in-band and never end up here.
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case err := <-server.Err():
		return fmt.Errorf("gateway listener failed: %w", err)
	}

	log.Info("IoT ingress gateway stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses INGRESS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INGRESS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadSeedRecords reads the initial device list for the authorization
// cache from a JSON array file.
func loadSeedRecords(path string) ([]directory.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var records []directory.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return records, nil
}
