package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"salesync/internal/relay"
	"salesync/pkg/logger"
)

// WSHandler upgrades connections into hub sessions.
type WSHandler struct {
	hub      *relay.Hub
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates the websocket endpoint handler. An empty origin
// accepts connections from anywhere.
func NewWSHandler(hub *relay.Hub, log *logger.Logger, origin string) *WSHandler {
	return &WSHandler{
		hub: hub,
		log: log.WithComponent("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" {
					return true
				}
				return r.Header.Get("Origin") == origin
			},
		},
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	session := relay.NewSession(h.hub, conn, h.log)
	h.hub.Register(session)
	go session.Run()
}
