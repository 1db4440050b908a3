package handlers

import "net/http"

// Healthz reports process liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz reports readiness to serve. Client construction happens before the
// listener starts, so a serving process is a ready process.
func (h *Handlers) Readyz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
