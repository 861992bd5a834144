package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"salesync/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size. Clients only send small control frames.
	maxMessageSize = 4096

	// Outbound buffer per session. When full, events are dropped for this
	// session only.
	sendBuffer = 64
)

// Session is one live websocket subscriber. Reads and writes run on
// separate pumps; the hub talks to the session only through the buffered
// send channel.
type Session struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	log  *logger.Logger

	send      chan []byte
	closeOnce sync.Once
}

// NewSession wraps an upgraded connection. The caller must Register it with
// the hub and call Run.
func NewSession(hub *Hub, conn *websocket.Conn, log *logger.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		ID:   id,
		hub:  hub,
		conn: conn,
		log:  log.WithComponent("session").With("session_id", id),
		send: make(chan []byte, sendBuffer),
	}
}

// Run starts the write pump and blocks on the read pump until the
// connection drops.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

// enqueue hands a pre-marshalled frame to the write pump without blocking.
// Returns false when the session is backlogged and the frame was dropped.
func (s *Session) enqueue(raw []byte) bool {
	select {
	case s.send <- raw:
		return true
	default:
		return false
	}
}

// close releases the underlying connection. Safe to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// clientMessage is the inbound control frame for the named-channel feature.
type clientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

func (s *Session) readPump() {
	defer s.hub.Unregister(s)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnw("read failed", "error", err)
			}
			return
		}
		if len(raw) == 0 {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warnw("bad client frame", "error", err)
			continue
		}

		switch msg.Action {
		case "join":
			if msg.Channel == "" {
				continue
			}
			s.hub.Join(s, msg.Channel)
			s.hub.Publish(msg.Channel, EventReceiveMessage, ChannelMessage{
				Channel: msg.Channel,
				Sender:  "System",
				Message: "A new user joined " + msg.Channel + ".",
			})
		case "publish":
			if msg.Channel == "" {
				continue
			}
			s.hub.Publish(msg.Channel, EventReceiveMessage, ChannelMessage{
				Channel: msg.Channel,
				Sender:  msg.Sender,
				Message: msg.Message,
			})
		default:
			s.log.Warnw("unknown client action", "action", msg.Action)
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-s.send:
			if !ok {
				_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
