package liveview

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"salesync/pkg/logger"
)

const (
	defaultReconnectDelay = 2 * time.Second

	// streamWriteWait bounds a single frame write.
	streamWriteWait = 10 * time.Second

	// streamReadWait must exceed the server ping period.
	streamReadWait = 90 * time.Second

	streamSendBuffer = 16
)

// envelope mirrors the server's wire frame.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StreamConfig configures a Stream.
type StreamConfig struct {
	// URL is the websocket endpoint (ws:// or wss://).
	URL string

	// ReconnectDelay between connection attempts.
	ReconnectDelay time.Duration

	Logger *logger.Logger
}

// Stream is a persistent event-stream subscription with automatic
// reconnect. Handlers registered with On receive raw event payloads on the
// read goroutine, so they must not block. Connect handlers fire on every
// successful dial; resumed is false on the first connection and true on
// every reconnect, the distinguishable signal views use to resync.
type Stream struct {
	cfg StreamConfig
	log *logger.Logger

	mu         sync.Mutex
	handlers   map[string][]func(json.RawMessage)
	connectFns []func(resumed bool)

	connected atomic.Bool
	send      chan []byte

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewStream creates a stream. Register handlers before Start to avoid
// missing the first connect signal.
func NewStream(cfg StreamConfig) *Stream {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Stream{
		cfg:      cfg,
		log:      log.WithComponent("stream"),
		handlers: make(map[string][]func(json.RawMessage)),
		send:     make(chan []byte, streamSendBuffer),
		done:     make(chan struct{}),
	}
}

// On registers a handler for a named event topic.
func (s *Stream) On(event string, fn func(json.RawMessage)) {
	s.mu.Lock()
	s.handlers[event] = append(s.handlers[event], fn)
	s.mu.Unlock()
}

// OnConnect registers a handler invoked after every successful dial.
func (s *Stream) OnConnect(fn func(resumed bool)) {
	s.mu.Lock()
	s.connectFns = append(s.connectFns, fn)
	s.mu.Unlock()
}

// Connected reports whether the stream currently has a live connection.
func (s *Stream) Connected() bool {
	return s.connected.Load()
}

// Start launches the connect/reconnect loop.
func (s *Stream) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.ctx, s.cancel = context.WithCancel(ctx)
		go s.run()
	})
}

// Close tears the stream down.
func (s *Stream) Close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Join subscribes this connection to a named free-text channel.
func (s *Stream) Join(channel string) {
	s.write(map[string]string{"action": "join", "channel": channel})
}

// Publish sends a free-text message to a named channel.
func (s *Stream) Publish(channel, sender, message string) {
	s.write(map[string]string{
		"action":  "publish",
		"channel": channel,
		"sender":  sender,
		"message": message,
	})
}

func (s *Stream) write(msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorw("marshal failed", "error", err)
		return
	}
	select {
	case s.send <- raw:
	default:
		s.log.Warnw("outbound frame dropped, send buffer full")
	}
}

func (s *Stream) run() {
	defer close(s.done)

	resumed := false
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(s.ctx, s.cfg.URL, nil)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.log.Warnw("dial failed", "url", s.cfg.URL, "error", err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.cfg.ReconnectDelay):
				continue
			}
		}

		s.connected.Store(true)
		s.log.Infow("connected", "url", s.cfg.URL, "resumed", resumed)
		s.fireConnect(resumed)
		resumed = true

		s.session(conn)
		s.connected.Store(false)

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// session pumps one connection until it drops.
func (s *Stream) session(conn *websocket.Conn) {
	defer conn.Close()

	sessionCtx, sessionCancel := context.WithCancel(s.ctx)
	defer sessionCancel()

	// Write pump: client frames are only control messages for the
	// named-channel feature.
	go func() {
		defer sessionCancel()
		for {
			select {
			case <-sessionCtx.Done():
				return
			case raw := <-s.send:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
					s.log.Warnw("write failed", "error", err)
					return
				}
			}
		}
	}()

	// The server pings; answering refreshes the read deadline.
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(streamWriteWait))
	})

	for {
		select {
		case <-sessionCtx.Done():
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				s.log.Warnw("connection lost", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warnw("bad frame", "error", err)
			continue
		}
		s.dispatch(env)
	}
}

func (s *Stream) dispatch(env envelope) {
	s.mu.Lock()
	fns := s.handlers[env.Event]
	s.mu.Unlock()

	for _, fn := range fns {
		fn(env.Data)
	}
}

func (s *Stream) fireConnect(resumed bool) {
	s.mu.Lock()
	fns := make([]func(bool), len(s.connectFns))
	copy(fns, s.connectFns)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(resumed)
	}
}
