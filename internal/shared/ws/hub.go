// Package ws держит WebSocket соединения водителей и доставляет им
// команды уведомлений. Клиент обязан прислать {"token": "..."} в течение
// authTimeout после подключения, иначе соединение закрывается.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/utils"

	"github.com/gorilla/websocket"
)

const (
	authTimeout    = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
	sendBuffer     = 64
)

var ErrNotConnected = errors.New("user not connected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: ограничить origin списком из конфига, когда появится веб-клиент
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AuthFunc проверяет токен и возвращает user_id и роль
type AuthFunc func(token string) (userID, role string, err error)

// MessageHandler обрабатывает входящие сообщения клиента вида {"type": ..., "data": ...}
type MessageHandler func(client *Client, messageType string, data json.RawMessage) error

type Client struct {
	ID     string
	UserID string
	Role   string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

type Hub struct {
	mu             sync.RWMutex
	clients        map[string]*Client
	register       chan *Client
	unregister     chan *Client
	authFunc       AuthFunc
	messageHandler MessageHandler
	log            *logger.Logger
}

func NewHub(authFunc AuthFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		authFunc:   authFunc,
		log:        log,
	}
}

func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.messageHandler = handler
}

// Run обрабатывает регистрацию и отключение клиентов до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.log.Info(logger.Entry{Action: "hub_stopped", Message: "websocket hub stopped"})
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
			h.log.Info(logger.Entry{
				Action:   "ws_client_registered",
				Message:  c.ID,
				DriverID: c.UserID,
				Additional: map[string]any{
					"role": c.Role,
				},
			})

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.ID]; ok {
				delete(h.clients, c.ID)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Info(logger.Entry{
				Action:   "ws_client_unregistered",
				Message:  c.ID,
				DriverID: c.UserID,
			})
		}
	}
}

// SendToUser кладёт сообщение во все соединения пользователя.
// Возвращает ErrNotConnected, если не доставлено ни в одно.
func (h *Hub) SendToUser(userID string, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.clients {
		if c.UserID != userID {
			continue
		}
		select {
		case c.send <- message:
			delivered++
		default:
			h.log.Warn(logger.Entry{
				Action:   "ws_send_buffer_full",
				Message:  c.ID,
				DriverID: userID,
			})
		}
	}
	if delivered == 0 {
		return ErrNotConnected
	}
	return nil
}

// SendTypedMessage отправляет {"type": msgType, "data": data}
func (h *Hub) SendTypedMessage(userID, msgType string, data any) error {
	msg, err := json.Marshal(map[string]any{
		"type": msgType,
		"data": data,
	})
	if err != nil {
		return err
	}
	return h.SendToUser(userID, msg)
}

func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// ConnectedUsers returns the number of distinct connected users.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, c := range h.clients {
		seen[c.UserID] = struct{}{}
	}
	return len(seen)
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(logger.Entry{
			Action:  "ws_upgrade_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(authTimeout))

	var authMsg struct {
		Token string `json:"token"`
	}
	if err := conn.ReadJSON(&authMsg); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "auth timeout"))
		_ = conn.Close()
		h.log.Warn(logger.Entry{Action: "ws_auth_failed", Message: "no auth message received"})
		return
	}

	userID, role, err := h.authFunc(authMsg.Token)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": "invalid token"})
		_ = conn.Close()
		h.log.Warn(logger.Entry{
			Action:  "ws_auth_invalid_token",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	c := &Client{
		ID:     "ws_" + utils.NewUUID(),
		UserID: userID,
		Role:   role,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Подтверждение отправляется до старта writePump: писать в conn может только одна горутина
	_ = conn.WriteJSON(map[string]string{"status": "authenticated", "user_id": userID})

	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn(logger.Entry{
					Action:   "ws_read_error",
					Message:  c.ID,
					DriverID: c.UserID,
					Error:    &logger.ErrObj{Msg: err.Error()},
				})
			}
			return
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data,omitempty"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Warn(logger.Entry{
				Action:   "ws_parse_message_error",
				Message:  err.Error(),
				DriverID: c.UserID,
			})
			continue
		}

		if c.hub.messageHandler == nil {
			continue
		}
		if err := c.hub.messageHandler(c, msg.Type, msg.Data); err != nil {
			c.hub.log.Error(logger.Entry{
				Action:   "ws_handle_message_error",
				Message:  err.Error(),
				DriverID: c.UserID,
				Error:    &logger.ErrObj{Msg: err.Error()},
				Additional: map[string]any{
					"msg_type": msg.Type,
				},
			})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
