package cache

import (
	"context"
	"net/http"
	"time"
)

// Entry is one cached response: body, headers, status, and the timing
// information that bounds its lifetime.
type Entry struct {
	Status    int           `json:"status"`
	Header    http.Header   `json:"header,omitempty"`
	Body      []byte        `json:"body,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
	Key       string        `json:"key"`
}

// Expired reports whether the entry is stale at the given time.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}

// Stats is a read-only snapshot of cache counters for diagnostics.
// The counters are monotonic and purely observational; the cache does not
// enforce invariants over them.
type Stats struct {
	Driver  string `json:"driver"`
	Enabled bool   `json:"enabled"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Writes  uint64 `json:"writes"`
	Size    int    `json:"size"`
	Max     int    `json:"max"`
}

// Store is the response cache contract. Implementations must make Get and
// Put individually atomic with respect to concurrent callers.
type Store interface {
	// Get returns the entry for key. Absent and expired keys count as a
	// miss; expired entries are removed lazily on access.
	Get(ctx context.Context, key string) (Entry, bool)

	// Put inserts or overwrites the entry and counts a write.
	Put(ctx context.Context, key string, entry Entry)

	// Stats returns a snapshot of the counters.
	Stats() Stats

	Close() error
}

// DefaultKey builds the default cache key from method, path, and the
// serialized query. url.Values.Encode sorts keys, so equivalent requests
// produce identical keys regardless of parameter order.
func DefaultKey(r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}
	return key
}
