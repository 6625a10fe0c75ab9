package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fsroute/fsroute/core/handler"
)

// Event is one server-sent event. Data is serialized as-is for strings and
// byte slices, and JSON-encoded otherwise.
type Event struct {
	Name string
	ID   string
	Data any
}

// Producer generates the event sequence for one connection. It must return
// when ctx is canceled (peer disconnect or server shutdown); emit reports
// cancellation through its error so a producer blocked on emit unwinds
// promptly. Resources held by the producer belong behind defer so the
// cancellation path releases them like normal completion does.
type Producer func(ctx context.Context, emit func(Event) error) error

type sseConfig struct {
	keepAlive   time.Duration
	noKeepAlive bool
	reconnect   int
}

type SSEOption func(*sseConfig)

// WithKeepAlive sets the comment-frame keepalive interval.
func WithKeepAlive(interval time.Duration) SSEOption {
	return func(c *sseConfig) {
		c.keepAlive = interval
	}
}

// WithoutKeepAlive disables keepalive frames.
func WithoutKeepAlive() SSEOption {
	return func(c *sseConfig) {
		c.noKeepAlive = true
	}
}

// WithReconnectTime advertises a client reconnect delay in milliseconds.
func WithReconnectTime(milliseconds int) SSEOption {
	return func(c *sseConfig) {
		c.reconnect = milliseconds
	}
}

// SSE upgrades the request into an event stream driven by produce. Events
// are framed and flushed in production order; the producer runs in its own
// goroutine so a voluntary delay between events never blocks other
// connections. The stream stops the instant the producer finishes or the
// peer disconnects, and the adapter waits for the producer to unwind before
// releasing the connection.
func SSE(produce Producer, opts ...SSEOption) handler.Response {
	cfg := &sseConfig{keepAlive: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return nil
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if cfg.reconnect > 0 {
			_, _ = fmt.Fprintf(w, "retry: %d\n", cfg.reconnect)
		}
		_, _ = fmt.Fprintf(w, ": connected\n\n")
		flusher.Flush()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events := make(chan Event)
		done := make(chan error, 1)
		go func() {
			err := produce(ctx, func(ev Event) error {
				select {
				case events <- ev:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			done <- err
			close(events)
		}()

		var keepAliveTicker *time.Ticker
		var keepAliveChan <-chan time.Time
		if !cfg.noKeepAlive && cfg.keepAlive > 0 {
			keepAliveTicker = time.NewTicker(cfg.keepAlive)
			keepAliveChan = keepAliveTicker.C
			defer keepAliveTicker.Stop()
		}

		for {
			select {
			case <-ctx.Done():
				// Peer gone: stop pulling and wait for the producer to
				// unwind so whatever it holds is released now, not later.
				cancel()
				<-done
				return nil

			case <-keepAliveChan:
				if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
					cancel()
					<-done
					return nil
				}
				flusher.Flush()

			case ev, open := <-events:
				if !open {
					err := <-done
					if err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				}
				if keepAliveTicker != nil {
					keepAliveTicker.Reset(cfg.keepAlive)
				}
				if err := writeEvent(w, ev); err != nil {
					cancel()
					<-done
					return nil
				}
				flusher.Flush()
			}
		}
	}
}

// SSEChannel adapts an already-running event channel to a stream. The
// channel must be closed by its owner when production ends.
func SSEChannel(events <-chan Event, opts ...SSEOption) handler.Response {
	return SSE(func(ctx context.Context, emit func(Event) error) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, open := <-events:
				if !open {
					return nil
				}
				if err := emit(ev); err != nil {
					return err
				}
			}
		}
	}, opts...)
}

// writeEvent serializes one event in wire framing: an optional event name
// line, one or more data lines, terminated by a blank line.
func writeEvent(w io.Writer, ev Event) error {
	if ev.Name != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Name); err != nil {
			return err
		}
	}
	if ev.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.ID); err != nil {
			return err
		}
	}

	var data string
	switch v := ev.Data.(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = string(encoded)
	}

	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
