package handler

import (
	"net/http"
	"time"

	"github.com/fsroute/fsroute/core/validator"
)

// Options is the metadata a route declares alongside its handler.
// The zero value describes a plain uncached, unvalidated route.
type Options struct {
	// CacheTTL enables response caching when positive. Only GET routes
	// participate; writes happen after a successful (2xx) response.
	CacheTTL time.Duration

	// CacheKey overrides the default method+path+query cache key.
	CacheKey func(r *http.Request, params map[string]string) string

	// Coerce enables the permissive string-to-primitive conversion pass
	// that runs on captures before validators. Off by default.
	Coerce bool

	// Protected flags the route for auth middleware. The routing core
	// carries the flag; enforcement belongs to middleware.
	Protected bool

	// Validators run in params, query, body order. The first failure
	// short-circuits the rest and surfaces as a 400 response before the
	// handler body executes.
	Params validator.Func
	Query  validator.Func
	Body   validator.Func
}
