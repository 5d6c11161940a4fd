package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nomination_ledger/internal/app/realtime"
	"nomination_ledger/internal/domain/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Client is one dashboard connection. It only receives; anything the
// browser sends besides control frames is ignored.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SnapshotFunc supplies the snapshot a new connection starts from.
type SnapshotFunc func(r *http.Request) (model.MetricsSnapshot, error)

// Handler upgrades the request and streams hub messages to it.
func (h *Hub) Handler(initial SnapshotFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "event", "ws_upgrade_failed", "error", err.Error())
			return
		}
		client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

		if initial != nil {
			if snap, err := initial(r); err == nil {
				if payload, err := json.Marshal(realtime.Message{Type: realtime.MessageSnapshot, Payload: snap}); err == nil {
					client.send <- payload
				}
			} else {
				h.logger.Warn("initial snapshot unavailable", "event", "ws_initial_snapshot_failed", "error", err.Error())
			}
		}

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump(h.logger)
	}
}

func (c *Client) readPump(logger *slog.Logger) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket closed", "event", "ws_closed", "error", err.Error())
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
