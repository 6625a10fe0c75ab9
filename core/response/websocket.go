package response

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fsroute/fsroute/core/handler"
)

// Phase is the lifecycle phase of a WebSocket session.
type Phase int32

const (
	PhaseOpening Phase = iota
	PhaseOpen
	PhaseClosing
	PhaseClosed
)

// Message is one inbound or outbound WebSocket frame.
type Message struct {
	Type int
	Data []byte
}

// Session is the per-connection state of an upgraded WebSocket route.
// Writes are serialized; a session is safe to share between the read loop
// and goroutines spawned by the handler.
type Session struct {
	conn      *websocket.Conn
	phase     atomic.Int32
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Phase returns the session's current lifecycle phase.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// Send writes one frame to the peer.
func (s *Session) Send(msg Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(msg.Type, msg.Data)
}

// SendText writes a text frame.
func (s *Session) SendText(text string) error {
	return s.Send(Message{Type: websocket.TextMessage, Data: []byte(text)})
}

// SendJSON writes v as a JSON text frame.
func (s *Session) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(Message{Type: websocket.TextMessage, Data: data})
}

// Close initiates a graceful shutdown from the server side.
func (s *Session) Close() error {
	s.phase.Store(int32(PhaseClosing))
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.conn.Close()
}

// SocketHandler holds the lifecycle callbacks of a WebSocket route.
// Open runs once after the upgrade, Message once per inbound frame in
// arrival order, and Close exactly once per connection, whether the peer
// closes gracefully or the transport drops mid-message.
type SocketHandler struct {
	Open    func(ctx context.Context, s *Session) error
	Message func(ctx context.Context, s *Session, msg Message) error
	Close   func(s *Session)
}

type wsConfig struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	onError        func(ctx context.Context, err error)
}

type WebSocketOption func(*wsConfig)

func WithWSReadBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWSWriteBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithWSAllowAnyOrigin() WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

func WithWSSubprotocols(protocols ...string) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.Subprotocols = protocols
	}
}

func WithWSUpgradeHeaders(header http.Header) WebSocketOption {
	return func(c *wsConfig) {
		c.responseHeader = header
	}
}

func WithWSErrorHandler(fn func(ctx context.Context, err error)) WebSocketOption {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

// WebSocket upgrades the request into a persistent connection driven by the
// socket handler's lifecycle callbacks. Upgraded connections never touch
// the response cache or the response side of the middleware chain.
func WebSocket(sock SocketHandler, opts ...WebSocketOption) handler.Response {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		conn, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			// Upgrade already wrote the handshake failure response.
			if cfg.onError != nil {
				cfg.onError(r.Context(), err)
			}
			return nil
		}

		s := &Session{conn: conn}
		s.phase.Store(int32(PhaseOpen))

		closeSession := func() {
			s.closeOnce.Do(func() {
				s.phase.Store(int32(PhaseClosed))
				_ = conn.Close()
				if sock.Close != nil {
					sock.Close(s)
				}
			})
		}
		defer closeSession()

		ctx := r.Context()

		if sock.Open != nil {
			if err := sock.Open(ctx, s); err != nil {
				if cfg.onError != nil {
					cfg.onError(ctx, err)
				}
				return nil
			}
		}

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				// Graceful close and abnormal drop land here alike; the
				// deferred close path runs exactly once either way.
				if cfg.onError != nil && websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					cfg.onError(ctx, err)
				}
				return nil
			}
			if sock.Message != nil {
				if err := sock.Message(ctx, s, Message{Type: msgType, Data: data}); err != nil {
					if cfg.onError != nil {
						cfg.onError(ctx, err)
					}
					return nil
				}
			}
		}
	}
}
