// Package relay fans change events out to every connected websocket
// session. Delivery is best-effort and at-most-once per event per session:
// a slow or dead session drops events instead of blocking the rest, and its
// only recovery path is a full resync.
package relay

import (
	"encoding/json"
	"sync"

	"salesync/pkg/logger"
)

// Envelope is the wire frame for every server-to-client message.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChannelMessage is a free-text message on a named channel. Independent of
// the entity change feed; shares the same connection.
type ChannelMessage struct {
	Channel string `json:"channel"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// EventReceiveMessage carries ChannelMessage payloads.
const EventReceiveMessage = "ReceiveMessage"

// Hub tracks connected sessions and their named-channel memberships.
type Hub struct {
	log *logger.Logger

	mu       sync.RWMutex
	sessions map[*Session]struct{}
	members  map[string]map[*Session]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.WithComponent("hub"),
		sessions: make(map[*Session]struct{}),
		members:  make(map[string]map[*Session]struct{}),
	}
}

// Register adds a session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	h.log.Infow("session registered", "session_id", s.ID, "sessions", n)
}

// Unregister removes a session and all its channel memberships.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	for name, members := range h.members {
		delete(members, s)
		if len(members) == 0 {
			delete(h.members, name)
		}
	}
	n := len(h.sessions)
	h.mu.Unlock()

	s.close()
	h.log.Infow("session unregistered", "session_id", s.ID, "sessions", n)
}

// Join adds the session to a named channel.
func (h *Hub) Join(s *Session, channel string) {
	h.mu.Lock()
	members, ok := h.members[channel]
	if !ok {
		members = make(map[*Session]struct{})
		h.members[channel] = members
	}
	members[s] = struct{}{}
	h.mu.Unlock()
}

// Broadcast delivers an event to every connected session. The envelope is
// marshalled once; a session whose send buffer is full is skipped.
func (h *Hub) Broadcast(event string, data any) {
	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.Errorw("broadcast marshal failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if !s.enqueue(raw) {
			h.log.Warnw("event dropped for slow session",
				"event", event, "session_id", s.ID)
		}
	}
}

// Publish delivers an event only to the members of a named channel.
func (h *Hub) Publish(channel, event string, data any) {
	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.Errorw("publish marshal failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.members[channel] {
		if !s.enqueue(raw) {
			h.log.Warnw("channel message dropped for slow session",
				"channel", channel, "session_id", s.ID)
		}
	}
}

// Len returns the number of connected sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
