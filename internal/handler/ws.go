package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to the peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from the peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades the request and streams scene updates for the session
// until the client disconnects.
func (h *StoryHandler) serveWS(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Error("Failed to upgrade connection", zap.String("sessionID", s.ID.String()), zap.Error(err))
		return
	}

	logger := h.logger.With(zap.String("sessionID", s.ID.String()))
	logger.Info("WebSocket connection established")

	updates, cancel := s.Subscribe()
	client := &wsClient{conn: conn, updates: updates, cancel: cancel}

	go client.writePump(logger)
	go client.readPump(logger)
}

// wsClient is one websocket subscriber of a session's scene updates.
type wsClient struct {
	conn    *websocket.Conn
	updates <-chan []byte
	cancel  func()
}

// readPump drains the connection. Clients are not expected to send
// anything; the read loop exists to detect disconnects and answer pongs.
func (c *wsClient) readPump(logger *zap.Logger) {
	defer func() {
		c.cancel()
		_ = c.conn.Close()
		logger.Debug("readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			} else {
				logger.Info("WebSocket connection closed")
			}
			return
		}
		logger.Warn("Ignoring unexpected client message", zap.ByteString("message", message))
	}
}

// writePump forwards scene updates to the connection and keeps it alive
// with pings.
func (c *wsClient) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		logger.Debug("writePump finished")
	}()

	for {
		select {
		case message, ok := <-c.updates:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to write scene update", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
