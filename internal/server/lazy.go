package server

import (
	"net/http"
	"sync/atomic"
)

// Lazy lets the listener accept connections before the upstream clients are
// built. It answers 503 for everything except /healthz until Set is called.
type Lazy struct {
	handler  atomic.Pointer[http.Handler]
	draining atomic.Bool
}

// Set activates the real handler.
func (l *Lazy) Set(h http.Handler) {
	l.handler.Store(&h)
}

// Drain marks the service as shutting down; /readyz reports 503 from then on.
func (l *Lazy) Drain() {
	l.draining.Store(true)
}

// Ready reports whether a handler is active and the service is not draining.
func (l *Lazy) Ready() bool {
	return l.handler.Load() != nil && !l.draining.Load()
}

func (l *Lazy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/readyz" && !l.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	h := l.handler.Load()
	if h == nil {
		if r.URL.Path == "/healthz" {
			handleHealth(w, r)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Service is initializing, please retry in a moment")
		return
	}
	(*h).ServeHTTP(w, r)
}
