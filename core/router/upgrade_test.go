package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/core/cache"
	"github.com/fsroute/fsroute/core/handler"
	"github.com/fsroute/fsroute/core/response"
	"github.com/fsroute/fsroute/core/router"
)

func TestMuxUpgradeRoutes(t *testing.T) {
	t.Parallel()

	t.Run("websocket_route_upgrades_through_dispatcher", func(t *testing.T) {
		t.Parallel()

		closed := make(chan struct{})

		mux := router.New[*router.Ctx]()
		mux.MustHandle("chat/[room].ws", func(ctx *router.Ctx) handler.Response {
			room := ctx.Param("room")
			return response.WebSocket(response.SocketHandler{
				Open: func(ctx context.Context, s *response.Session) error {
					return s.SendText("joined " + room)
				},
				Message: func(ctx context.Context, s *response.Session, msg response.Message) error {
					return s.SendText("echo " + string(msg.Data))
				},
				Close: func(s *response.Session) {
					close(closed)
				},
			}, response.WithWSAllowAnyOrigin())
		})

		srv := httptest.NewServer(mux)
		defer srv.Close()

		url := strings.Replace(srv.URL, "http", "ws", 1) + "/chat/lobby"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		_, greeting, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "joined lobby", string(greeting))

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
		_, echoed, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "echo hi", string(echoed))

		require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

		select {
		case <-closed:
		case <-time.After(2 * time.Second):
			t.Fatal("close callback did not run")
		}
	})

	t.Run("sse_route_streams_through_dispatcher", func(t *testing.T) {
		t.Parallel()

		mux := router.New[*router.Ctx]()
		mux.MustHandle("feed/live.sse", func(ctx *router.Ctx) handler.Response {
			return response.SSE(func(ctx context.Context, emit func(response.Event) error) error {
				if err := emit(response.Event{Name: "tick", Data: "one"}); err != nil {
					return err
				}
				return emit(response.Event{Name: "tick", Data: "two"})
			}, response.WithoutKeepAlive())
		})

		srv := httptest.NewServer(mux)
		defer srv.Close()

		res, err := http.Get(srv.URL + "/feed/live")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)

		text := string(body)
		assert.Contains(t, text, "event: tick\ndata: one\n\n")
		assert.Contains(t, text, "event: tick\ndata: two\n\n")
		assert.Less(t, strings.Index(text, "data: one"), strings.Index(text, "data: two"))
	})

	t.Run("websocket_route_skips_response_cache", func(t *testing.T) {
		t.Parallel()

		// Upgrade routes never participate in caching even with a TTL set.
		var upgrades atomic.Int32
		store := cache.NewMemory(16)

		mux := router.New[*router.Ctx](router.WithCache[*router.Ctx](store))
		mux.MustHandleWith("live.ws", func(ctx *router.Ctx) handler.Response {
			upgrades.Add(1)
			return response.WebSocket(response.SocketHandler{}, response.WithWSAllowAnyOrigin())
		}, handler.Options{CacheTTL: time.Minute})

		srv := httptest.NewServer(mux)
		defer srv.Close()

		url := strings.Replace(srv.URL, "http", "ws", 1) + "/live"
		for i := 0; i < 2; i++ {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			require.NoError(t, err)
			require.NoError(t, conn.Close())
		}
		assert.Equal(t, int32(2), upgrades.Load())
		assert.Equal(t, uint64(0), store.Stats().Writes)
	})
}
