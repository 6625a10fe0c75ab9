package response_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/core/response"
)

func sseServer(t *testing.T, produce response.Producer, opts ...response.SSEOption) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := response.SSE(produce, opts...)
		_ = resp(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSSE(t *testing.T) {
	t.Parallel()

	t.Run("events_arrive_in_production_order", func(t *testing.T) {
		t.Parallel()

		srv := sseServer(t, func(ctx context.Context, emit func(response.Event) error) error {
			if err := emit(response.Event{Name: "greeting", Data: "one"}); err != nil {
				return err
			}
			time.Sleep(20 * time.Millisecond)
			return emit(response.Event{Data: "two"})
		}, response.WithoutKeepAlive())

		res, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)

		text := string(body)
		assert.Contains(t, text, "event: greeting\n")
		assert.Contains(t, text, "data: one\n")
		assert.Contains(t, text, "data: two\n")
		assert.Less(t, strings.Index(text, "data: one"), strings.Index(text, "data: two"))
	})

	t.Run("disconnect_cancels_producer", func(t *testing.T) {
		t.Parallel()

		canceled := make(chan bool, 1)

		srv := sseServer(t, func(ctx context.Context, emit func(response.Event) error) error {
			if err := emit(response.Event{Data: "one"}); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				canceled <- true
				return ctx.Err()
			case <-time.After(5 * time.Second):
				canceled <- false
				_ = emit(response.Event{Data: "two"})
				return nil
			}
		}, response.WithoutKeepAlive())

		res, err := http.Get(srv.URL)
		require.NoError(t, err)

		// Read until the first event arrives, then drop the connection
		// mid-delay.
		reader := bufio.NewReader(res.Body)
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: one") {
				break
			}
		}
		res.Body.Close()

		select {
		case wasCanceled := <-canceled:
			assert.True(t, wasCanceled, "producer should observe cancellation, not finish the delay")
		case <-time.After(3 * time.Second):
			t.Fatal("producer did not unwind after disconnect")
		}
	})

	t.Run("multi_line_data_splits_into_data_lines", func(t *testing.T) {
		t.Parallel()

		srv := sseServer(t, func(ctx context.Context, emit func(response.Event) error) error {
			return emit(response.Event{Data: "first\nsecond"})
		}, response.WithoutKeepAlive())

		res, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "data: first\ndata: second\n\n")
	})

	t.Run("non_string_data_is_json_encoded", func(t *testing.T) {
		t.Parallel()

		srv := sseServer(t, func(ctx context.Context, emit func(response.Event) error) error {
			return emit(response.Event{ID: "7", Data: map[string]int{"count": 3}})
		}, response.WithoutKeepAlive())

		res, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "id: 7\n")
		assert.Contains(t, string(body), `data: {"count":3}`)
	})

	t.Run("reconnect_time_advertised", func(t *testing.T) {
		t.Parallel()

		srv := sseServer(t, func(ctx context.Context, emit func(response.Event) error) error {
			return nil
		}, response.WithoutKeepAlive(), response.WithReconnectTime(1500))

		res, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "retry: 1500\n")
	})

	t.Run("channel_adapter_streams_until_closed", func(t *testing.T) {
		t.Parallel()

		events := make(chan response.Event, 2)
		events <- response.Event{Data: "a"}
		events <- response.Event{Data: "b"}
		close(events)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = response.SSEChannel(events, response.WithoutKeepAlive())(w, r)
		}))
		defer srv.Close()

		res, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "data: a\n")
		assert.Contains(t, string(body), "data: b\n")
	})

	t.Run("writer_without_flusher_is_rejected", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		// Hide the recorder's Flush behind a bare ResponseWriter.
		plain := struct{ http.ResponseWriter }{rec}

		resp := response.SSE(func(ctx context.Context, emit func(response.Event) error) error {
			return nil
		})
		require.NoError(t, resp(plain, httptest.NewRequest(http.MethodGet, "/stream", nil)))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
