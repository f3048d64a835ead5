package gateway

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestResponder_FirstWriteWins(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := newResponder(rec)

	if !resp.respond(http.StatusOK, "first\n") {
		t.Fatal("first respond() should claim the writer")
	}
	if resp.respond(http.StatusInternalServerError, "second\n") {
		t.Error("second respond() should be a no-op")
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "first\n" {
		t.Errorf("body = %q, want only the first write", rec.Body.String())
	}
	if !resp.done() {
		t.Error("done() = false after a write")
	}
}

func TestResponder_ConcurrentClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := newResponder(rec)

	const racers = 32
	var wg sync.WaitGroup
	var winsMu sync.Mutex
	wins := 0

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if resp.respond(http.StatusOK, fmt.Sprintf("racer-%d\n", n)) {
				winsMu.Lock()
				wins++
				winsMu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
}

func TestResponder_ContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	newResponder(rec).respond(http.StatusBadRequest, "nope\n")

	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestResponderFrom_FallsBackWithoutMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	resp := responderFrom(r, rec)
	if resp == nil {
		t.Fatal("responderFrom() returned nil")
	}
	if !resp.respond(http.StatusOK, "ok\n") {
		t.Error("fallback responder should be writable")
	}
}
