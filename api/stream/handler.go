package stream

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket subscriptions. The
// stream is one-way: clients only receive envelopes, anything they
// send is discarded.
type Handler struct {
	hub    *Hub
	status func() model.RunStatus
	log    logger.Logger
}

// NewHandler builds the /ws handler. status may be nil; when set, the
// current controller snapshot is sent to every client on connect.
func NewHandler(hub *Hub, status func() model.RunStatus, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{hub: hub, status: status, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendStatus(client)
	h.readPump(client)
}

func (h *Handler) sendStatus(c *Client) {
	if h.status == nil {
		return
	}
	msg, err := NewEnvelope(TypeStatus, h.status())
	if err != nil {
		h.log.Errorf("marshal status envelope: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// readPump drains the connection until the peer goes away. Incoming
// payloads are ignored.
func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugf("websocket read: %v", err)
			}
			return
		}
	}
}
