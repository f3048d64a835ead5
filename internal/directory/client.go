package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/iot-ingress/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bus is the slice of the MQTT client the directory client needs.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Client performs device authorization lookups against the external
// device directory over the message bus.
//
// Each lookup publishes a request carrying a fresh correlation id and
// races the matching reply against a timeout. The pending table maps
// correlation id to the single reply channel that may consume the reply;
// an entry is removed by whichever side resolves first, which is what
// makes the losing branch inert.
//
// All methods are safe for concurrent use.
type Client struct {
	bus     Bus
	cache   *Cache // optional fast path; nil disables
	timeout time.Duration
	qos     byte
	logger  Logger

	pending   map[string]chan Record
	pendingMu sync.Mutex

	topics mqtt.Topics
}

// Options configures a directory Client.
type Options struct {
	// Timeout bounds the lookup race. Must be positive.
	Timeout time.Duration

	// QoS is the MQTT QoS used for lookup requests.
	QoS byte

	// Cache, when non-nil, resolves lookups synchronously without a
	// network round-trip.
	Cache *Cache
}

// NewClient creates a directory client.
//
// Start must be called before Lookup to attach the reply subscription.
func NewClient(bus Bus, opts Options) (*Client, error) {
	if bus == nil {
		return nil, fmt.Errorf("directory: bus is required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("directory: lookup timeout must be positive")
	}

	return &Client{
		bus:     bus,
		cache:   opts.Cache,
		timeout: opts.Timeout,
		qos:     opts.QoS,
		logger:  noopLogger{},
		pending: make(map[string]chan Record),
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Start subscribes to the directory reply topic.
//
// A single wildcard subscription serves all in-flight lookups; replies
// are routed to their owner by the correlation id in the topic.
func (c *Client) Start() error {
	return c.bus.Subscribe(c.topics.DirectoryReplies(), c.qos, c.routeReply)
}

// Lookup resolves whether the device is registered in the directory.
//
// The cache, when configured, decides immediately: a hit is Authorized,
// a miss is Unauthorized, and no request is published. Otherwise the
// lookup is asynchronous and bounded by the configured timeout.
//
// Exactly one outcome is produced per call. A reply that arrives after
// the timeout has fired is dropped by the reply router (its correlation
// id is no longer pending) and cannot produce a second outcome.
//
// An unreachable directory (publish failure) surfaces as OutcomeTimedOut;
// the HTTP caller is not told the difference.
func (c *Client) Lookup(ctx context.Context, deviceID string) (Outcome, Record) {
	// Fast path: local authorization cache.
	if c.cache != nil {
		if rec, ok := c.cache.Get(deviceID); ok {
			c.logger.Debug("device authorized from cache", "device", deviceID)
			return OutcomeAuthorized, rec
		}
		c.logger.Info("HTTP Gateway - Access Denied. Unauthorized Device",
			"device", deviceID,
		)
		return OutcomeUnauthorized, nil
	}

	requestID := uuid.NewString()
	reply := make(chan Record, 1)

	c.pendingMu.Lock()
	c.pending[requestID] = reply
	c.pendingMu.Unlock()

	payload, err := json.Marshal(lookupRequest{
		RequestID: requestID,
		DeviceID:  deviceID,
	})
	if err != nil {
		// Marshalling two strings cannot fail; guard kept for symmetry.
		c.forget(requestID)
		return OutcomeTimedOut, nil
	}

	if err := c.bus.Publish(c.topics.DirectoryLookup(), payload, c.qos, false); err != nil {
		c.forget(requestID)
		c.logger.Error("HTTP Gateway - Device Directory Unreachable",
			"device", deviceID,
			"error", err,
		)
		return OutcomeTimedOut, nil
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case rec := <-reply:
		if len(rec) == 0 {
			c.logger.Info("HTTP Gateway - Access Denied. Unauthorized Device",
				"device", deviceID,
			)
			return OutcomeUnauthorized, nil
		}
		c.logger.Debug("device authorized", "device", deviceID)
		return OutcomeAuthorized, rec

	case <-timer.C:
		c.forget(requestID)
		c.logger.Warn("HTTP Gateway - Device Lookup Timed Out",
			"device", deviceID,
			"timeout", c.timeout,
		)
		return OutcomeTimedOut, nil

	case <-ctx.Done():
		c.forget(requestID)
		c.logger.Warn("device lookup cancelled",
			"device", deviceID,
			"error", ctx.Err(),
		)
		return OutcomeTimedOut, nil
	}
}

// routeReply delivers a directory reply to the lookup that owns its
// correlation id. Replies for unknown or already-resolved ids are
// dropped silently; that is the normal fate of a reply that lost the
// race against the timeout.
func (c *Client) routeReply(topic string, payload []byte) error {
	requestID, ok := mqtt.ReplyRequestID(topic)
	if !ok {
		return fmt.Errorf("directory: unexpected reply topic %q", topic)
	}

	c.pendingMu.Lock()
	reply, found := c.pending[requestID]
	if found {
		delete(c.pending, requestID)
	}
	c.pendingMu.Unlock()

	if !found {
		c.logger.Debug("dropping late directory reply", "request_id", requestID)
		return nil
	}

	rec, err := decodeRecord(payload)
	if err != nil {
		// An unparsable reply counts as "not registered" rather than
		// leaving the lookup to time out.
		c.logger.Warn("malformed directory reply", "request_id", requestID, "error", err)
		rec = nil
	}

	// Buffered channel; the owning lookup is the only receiver.
	reply <- rec
	return nil
}

// forget removes a pending correlation id. Safe to call after the reply
// router has already claimed the entry.
func (c *Client) forget(requestID string) {
	c.pendingMu.Lock()
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
}

// PendingCount returns the number of in-flight lookups.
//
// This can be useful for monitoring and leak detection.
func (c *Client) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}
