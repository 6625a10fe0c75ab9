package router

import (
	"encoding/json"
	"net/http"

	"github.com/fsroute/fsroute/core/cache"
	"github.com/fsroute/fsroute/core/handler"
)

// CacheStats returns a snapshot of the attached cache's counters. With no
// cache attached it reports driver "none" and enabled false.
func (m *Mux[C]) CacheStats() cache.Stats {
	if m.cache == nil {
		return cache.Stats{Driver: "none"}
	}
	return m.cache.Stats()
}

// Diagnostics returns a handler rendering the cache counters as JSON, for
// mounting on an operational endpoint.
func (m *Mux[C]) Diagnostics() handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			return json.NewEncoder(w).Encode(m.CacheStats())
		}
	}
}
