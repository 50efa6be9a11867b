// Package router maintains the bidirectional session state of the bridge:
// which TCP connections are alive, and which conversation threads should
// route human replies back to which connection.
//
// A thread binding lives for the whole life of its connection and may carry
// any number of replies. Unregistering a connection scrubs every binding that
// points at it, so no reply can ever be written to a closed socket: the
// router is the single write gate for the reverse path.
package router

import (
	"io"
	"sync"

	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
)

// Router is safe for concurrent use; all state is guarded by one mutex.
type Router struct {
	mu      sync.Mutex
	conns   map[string]io.Writer            // connection id -> live socket
	routes  map[string]string               // thread id -> connection id
	threads map[string]map[string]struct{}  // connection id -> bound thread ids
}

func New() *Router {
	return &Router{
		conns:   make(map[string]io.Writer),
		routes:  make(map[string]string),
		threads: make(map[string]map[string]struct{}),
	}
}

// RegisterConnection makes a freshly accepted connection routable.
func (r *Router) RegisterConnection(connID string, w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = w
}

// UnregisterConnection removes a connection and every thread binding that
// points at it. Safe to call for unknown or already removed ids.
func (r *Router) UnregisterConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
	for threadID := range r.threads[connID] {
		delete(r.routes, threadID)
	}
	delete(r.threads, connID)
}

// BindThread routes future replies in threadID back to connID, overwriting
// any prior binding for that thread. Returns false when the connection has
// already gone away (its queued item outlived it), in which case no binding
// is created.
func (r *Router) BindThread(threadID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return false
	}

	if prev, ok := r.routes[threadID]; ok && prev != connID {
		delete(r.threads[prev], threadID)
	}

	r.routes[threadID] = connID
	if r.threads[connID] == nil {
		r.threads[connID] = make(map[string]struct{})
	}
	r.threads[connID][threadID] = struct{}{}
	return true
}

// RouteReply writes text to the socket bound to threadID and reports whether
// it was delivered. A missing binding or a failed write is logged and
// reported as not delivered; the connection is not torn down on write errors.
//
// The write happens under the router lock, so it can never race a concurrent
// UnregisterConnection onto a closed socket.
func (r *Router) RouteReply(threadID, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.routes[threadID]
	if !ok {
		logger.InfoCF("router", "No matching socket for reply", map[string]any{
			"thread_id": threadID,
		})
		return false
	}

	w, ok := r.conns[connID]
	if !ok {
		return false
	}

	if _, err := w.Write([]byte(text)); err != nil {
		logger.ErrorCF("router", "Reply write failed", map[string]any{
			"thread_id": threadID,
			"conn_id":   connID,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

// Bindings returns the number of live thread bindings, for diagnostics.
func (r *Router) Bindings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

// Connections returns the number of registered connections, for diagnostics.
func (r *Router) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
