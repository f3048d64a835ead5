package gateway

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
)

// responder wraps an http.ResponseWriter with a claim-once guard.
//
// Several paths can race to answer a single request: the handler's
// normal flow, the recovery middleware after a panic, or a lookup
// branch resolving late. The first respond() call claims the writer;
// every later call is an inert no-op. This guarantees exactly one
// terminal write per request regardless of interleaving.
type responder struct {
	w       http.ResponseWriter
	claimed atomic.Bool
}

func newResponder(w http.ResponseWriter) *responder {
	return &responder{w: w}
}

// respond writes a plain-text response if the writer is unclaimed.
// Returns true if this call performed the write.
func (r *responder) respond(status int, body string) bool {
	if !r.claimed.CompareAndSwap(false, true) {
		return false
	}
	r.w.Header().Set("Content-Type", "text/plain")
	r.w.WriteHeader(status)
	//nolint:errcheck // Best-effort write; connection may be closed
	io.WriteString(r.w, body)
	return true
}

// done reports whether a response has already been written.
func (r *responder) done() bool {
	return r.claimed.Load()
}

// ctxKeyResponder carries the request's responder through the
// middleware chain so recovery and handlers share the same claim.
const ctxKeyResponder contextKey = "responder"

func withResponder(ctx context.Context, resp *responder) context.Context {
	return context.WithValue(ctx, ctxKeyResponder, resp)
}

// responderFrom returns the request's responder, creating a standalone
// one if the middleware chain did not install it (direct handler
// invocation in tests).
func responderFrom(r *http.Request, w http.ResponseWriter) *responder {
	if resp, ok := r.Context().Value(ctxKeyResponder).(*responder); ok {
		return resp
	}
	return newResponder(w)
}
