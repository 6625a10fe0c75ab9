package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/core/handler"
	"github.com/fsroute/fsroute/core/response"
	"github.com/fsroute/fsroute/core/router"
	"github.com/fsroute/fsroute/middleware"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates_uuid_and_sets_header", func(t *testing.T) {
		t.Parallel()

		var seen string

		mux := router.New[*router.Ctx]()
		mux.Use(middleware.RequestID[*router.Ctx]())
		mux.MustHandle("ping.get", func(ctx *router.Ctx) handler.Response {
			seen, _ = middleware.GetRequestID(ctx)
			return response.String("pong")
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("reuses_incoming_id_when_configured", func(t *testing.T) {
		t.Parallel()

		mux := router.New[*router.Ctx]()
		mux.Use(middleware.RequestIDWithConfig[*router.Ctx](middleware.RequestIDConfig{
			UseExisting: true,
		}))
		mux.MustHandle("ping.get", func(ctx *router.Ctx) handler.Response {
			return response.String("pong")
		})

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "upstream-id")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))
	})

	t.Run("custom_header_and_generator", func(t *testing.T) {
		t.Parallel()

		mux := router.New[*router.Ctx]()
		mux.Use(middleware.RequestIDWithConfig[*router.Ctx](middleware.RequestIDConfig{
			HeaderName: "X-Trace-ID",
			Generator:  func() string { return "fixed" },
		}))
		mux.MustHandle("ping.get", func(ctx *router.Ctx) handler.Response {
			return response.String("pong")
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, "fixed", rec.Header().Get("X-Trace-ID"))
	})
}
