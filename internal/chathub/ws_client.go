package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"tawk/backend/internal/config"
	"tawk/backend/internal/logging"
	"tawk/backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	UserID string
	Conn   *websocket.Conn
	Hub    *ManagerService

	send      chan models.Event
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	log       *zap.Logger
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, userID string, log *zap.Logger) *WebSocketClient {
	return &WebSocketClient{
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		send:   make(chan models.Event, config.SendBufferSize),
		log:    logging.OrNop(log).With(zap.String("component", "ws"), zap.String("user_id", userID)),
	}
}

func (c *WebSocketClient) GetUserID() string { return c.UserID }

func (c *WebSocketClient) Send(ev models.Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which closes the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Info("connection lost", zap.Error(err))
			}
			return
		}

		var ev models.Event
		if err := json.Unmarshal(message, &ev); err != nil || ev.Name == "" {
			c.log.Debug("undecodable frame", zap.Error(err))
			if errEv, encErr := models.NewEvent(models.EventError, models.Notice{Message: "malformed frame"}); encErr == nil {
				c.Send(errEv)
			}
			continue
		}

		if !c.Hub.Submit(models.Inbound{UserID: c.UserID, Event: ev}) {
			return
		}
	}
}

// writePump writes queued events as one text frame each and keeps the
// connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(ev); err != nil {
				c.log.Debug("write failed", zap.String("event", ev.Name), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
