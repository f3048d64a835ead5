package directory

import (
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/iot-ingress/internal/infrastructure/mqtt"
)

func TestCache_AddAndGet(t *testing.T) {
	cache := NewCache()

	if err := cache.Add(Record{"_id": "D1", "name": "sensor"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rec, ok := cache.Get("D1")
	if !ok {
		t.Fatal("Get() did not find added record")
	}
	if rec.ID() != "D1" {
		t.Errorf("record id = %q, want %q", rec.ID(), "D1")
	}
}

func TestCache_AddWithoutID(t *testing.T) {
	cache := NewCache()

	err := cache.Add(Record{"name": "no id"})
	if !errors.Is(err, ErrMissingRecordID) {
		t.Errorf("Add() error = %v, want ErrMissingRecordID", err)
	}
	if cache.Count() != 0 {
		t.Errorf("Count() = %d after rejected add, want 0", cache.Count())
	}
}

func TestCache_AddNonStringID(t *testing.T) {
	cache := NewCache()

	err := cache.Add(Record{"_id": 42})
	if !errors.Is(err, ErrMissingRecordID) {
		t.Errorf("Add() error = %v, want ErrMissingRecordID", err)
	}
}

func TestCache_Remove(t *testing.T) {
	cache := NewCache()

	if err := cache.Add(Record{"_id": "D1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := cache.Remove(Record{"_id": "D1"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, ok := cache.Get("D1"); ok {
		t.Error("Get() found record after removal")
	}
}

func TestCache_RemoveWithoutID(t *testing.T) {
	cache := NewCache()

	if err := cache.Add(Record{"_id": "D1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err := cache.Remove(Record{})
	if !errors.Is(err, ErrMissingRecordID) {
		t.Errorf("Remove() error = %v, want ErrMissingRecordID", err)
	}
	if cache.Count() != 1 {
		t.Errorf("Count() = %d after rejected remove, want 1", cache.Count())
	}
}

func TestCache_LoadLastWriteWins(t *testing.T) {
	cache := NewCache()

	cache.Load([]Record{
		{"_id": "D1", "rev": 1},
		{"no_id": true},
		{"_id": "D2"},
		{"_id": "D1", "rev": 2},
	})

	if cache.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", cache.Count())
	}

	rec, ok := cache.Get("D1")
	if !ok {
		t.Fatal("Get(D1) not found")
	}
	// Duplicate ids: the later record wins.
	if rev, _ := rec["rev"].(int); rev != 2 {
		t.Errorf("D1 rev = %v, want 2", rec["rev"])
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache()
	cache.Load([]Record{{"_id": "seed"}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = cache.Add(Record{"_id": "churn"})
				_ = cache.Remove(Record{"_id": "churn"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Get("seed")
				cache.Count()
			}
		}()
	}
	wg.Wait()

	if _, ok := cache.Get("seed"); !ok {
		t.Error("seed record lost during concurrent churn")
	}
}

func TestCache_Bind(t *testing.T) {
	bus := newFakeBus()
	cache := NewCache()

	if err := cache.Bind(bus, 1); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	topics := mqtt.Topics{}

	bus.mu.Lock()
	added := bus.handlers[topics.DirectoryDeviceAdded()]
	removed := bus.handlers[topics.DirectoryDeviceRemoved()]
	bus.mu.Unlock()

	if added == nil || removed == nil {
		t.Fatal("Bind() did not subscribe to both event topics")
	}

	if err := added("", []byte(`{"_id":"D9"}`)); err != nil {
		t.Fatalf("added handler error = %v", err)
	}
	if _, ok := cache.Get("D9"); !ok {
		t.Error("device-added event did not populate cache")
	}

	if err := removed("", []byte(`{"_id":"D9"}`)); err != nil {
		t.Fatalf("removed handler error = %v", err)
	}
	if _, ok := cache.Get("D9"); ok {
		t.Error("device-removed event did not evict cache entry")
	}

	// Malformed payloads surface as errors and leave the cache unchanged.
	if err := added("", []byte(`not json`)); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("added handler error = %v, want ErrMalformedRecord", err)
	}
	if cache.Count() != 0 {
		t.Errorf("Count() = %d after malformed event, want 0", cache.Count())
	}
}
