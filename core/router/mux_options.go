package router

import (
	"log/slog"
	"net/http"

	"github.com/fsroute/fsroute/core/cache"
	"github.com/fsroute/fsroute/core/handler"
)

// Option configures a Mux during construction.
type Option[C handler.Context] func(*Mux[C])

// WithErrorHandler replaces the default JSON error handler.
func WithErrorHandler[C handler.Context](eh handler.ErrorHandler[C]) Option[C] {
	return func(m *Mux[C]) {
		if eh != nil {
			m.errorHandler = eh
		}
	}
}

// WithMiddleware appends global middleware at construction time.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(m *Mux[C]) {
		m.middlewares = append(m.middlewares, middlewares...)
	}
}

// WithContextFactory supplies the factory for custom context types. Required
// for any C other than *Ctx.
func WithContextFactory[C handler.Context](factory func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(m *Mux[C]) {
		if factory != nil {
			m.newContext = factory
		}
	}
}

// WithLogger sets the logger used for unhandled failures and panics.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(m *Mux[C]) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCache attaches a response cache store. Without it, CacheTTL on route
// options has no effect.
func WithCache[C handler.Context](store cache.Store) Option[C] {
	return func(m *Mux[C]) {
		m.cache = store
	}
}
