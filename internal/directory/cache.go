package directory

import (
	"fmt"
	"sync"

	"github.com/nerrad567/iot-ingress/internal/infrastructure/mqtt"
)

// Cache is the local authorization cache: an in-process mapping of
// device id to directory record.
//
// It is bulk-loaded once at startup and kept in sync by directory
// add/remove events. Reads never block on I/O, which is what makes the
// cached lookup fast path synchronous.
//
// All public methods are thread-safe.
type Cache struct {
	mu      sync.RWMutex
	records map[string]Record
	logger  Logger
}

// NewCache creates an empty authorization cache.
func NewCache() *Cache {
	return &Cache{
		records: make(map[string]Record),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// Load bulk-populates the cache from an initial device list.
//
// Records without an "_id" are skipped with a logged diagnostic.
// On duplicate ids the last record wins.
func (c *Cache) Load(records []Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	loaded := 0
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			c.logger.Warn("skipping device record without _id during load")
			continue
		}
		c.records[id] = rec
		loaded++
	}

	c.logger.Info("authorization cache loaded", "devices", loaded)
}

// Get looks up a device record by id. Never blocks; never performs I/O.
func (c *Cache) Get(deviceID string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[deviceID]
	return rec, ok
}

// Add upserts a device record, keyed by its "_id".
//
// A record without an "_id" is rejected with ErrMissingRecordID and the
// cache is left unchanged.
func (c *Cache) Add(rec Record) error {
	id := rec.ID()
	if id == "" {
		c.logger.Warn("rejecting device-added event without _id")
		return ErrMissingRecordID
	}

	c.mu.Lock()
	c.records[id] = rec
	c.mu.Unlock()

	c.logger.Debug("device added to cache", "device", id)
	return nil
}

// Remove deletes a device record by its "_id".
//
// A record without an "_id" is rejected with ErrMissingRecordID and the
// cache is left unchanged.
func (c *Cache) Remove(rec Record) error {
	id := rec.ID()
	if id == "" {
		c.logger.Warn("rejecting device-removed event without _id")
		return ErrMissingRecordID
	}

	c.mu.Lock()
	delete(c.records, id)
	c.mu.Unlock()

	c.logger.Debug("device removed from cache", "device", id)
	return nil
}

// Count returns the number of cached device records.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Bind subscribes the cache to the directory's add/remove event topics
// so it tracks registration changes for the process lifetime.
func (c *Cache) Bind(bus Bus, qos byte) error {
	topics := mqtt.Topics{}

	if err := bus.Subscribe(topics.DirectoryDeviceAdded(), qos, func(_ string, payload []byte) error {
		rec, err := decodeRecord(payload)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		return c.Add(rec)
	}); err != nil {
		return fmt.Errorf("subscribing to device-added events: %w", err)
	}

	if err := bus.Subscribe(topics.DirectoryDeviceRemoved(), qos, func(_ string, payload []byte) error {
		rec, err := decodeRecord(payload)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		return c.Remove(rec)
	}); err != nil {
		return fmt.Errorf("subscribing to device-removed events: %w", err)
	}

	return nil
}
