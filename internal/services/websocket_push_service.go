package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"wallet-backend/internal/events"
	"wallet-backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 256
)

// WebSocket Upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Connection information
type Connection struct {
	ID       string          `json:"id"`
	Address  string          `json:"address"` // empty receives every event
	Conn     *websocket.Conn `json:"-"`
	Send     chan []byte     `json:"-"`
	LastPing time.Time       `json:"last_ping"`
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(conn *websocket.Conn, address string) *Connection {
	return &Connection{
		ID:       "conn_" + uuid.New().String(),
		Address:  strings.ToLower(strings.TrimSpace(address)),
		Conn:     conn,
		Send:     make(chan []byte, wsSendBuffer),
		LastPing: time.Now(),
	}
}

// PushMessage envelope written to clients
type PushMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id"`
	Data      interface{} `json:"data"`
}

// WebSocketPushService fans lifecycle events out to connected clients.
// It implements events.Publisher.
type WebSocketPushService struct {
	connections map[string]*Connection
	hub         chan events.Event
	register    chan *Connection
	unregister  chan *Connection
	done        chan struct{}
	stopOnce    sync.Once
	mutex       sync.RWMutex
	logger      *logrus.Entry
}

// NewWebSocketPushService creates the service and starts its hub goroutine
func NewWebSocketPushService() *WebSocketPushService {
	service := &WebSocketPushService{
		connections: make(map[string]*Connection),
		hub:         make(chan events.Event, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
		logger:      logrus.WithField("service", "websocket_push"),
	}

	go service.run()
	return service
}

func (s *WebSocketPushService) run() {
	for {
		select {
		case conn := <-s.register:
			s.handleRegister(conn)

		case conn := <-s.unregister:
			s.handleUnregister(conn)

		case event := <-s.hub:
			s.handleBroadcast(event)

		case <-s.done:
			s.closeAll()
			return
		}
	}
}

// Stop closes every connection and ends the hub goroutine
func (s *WebSocketPushService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// RegisterConnection adds a connection to the hub
func (s *WebSocketPushService) RegisterConnection(conn *Connection) {
	select {
	case s.register <- conn:
	case <-s.done:
	}
}

// UnregisterConnection removes a connection and closes its send queue
func (s *WebSocketPushService) UnregisterConnection(conn *Connection) {
	select {
	case s.unregister <- conn:
	case <-s.done:
	}
}

// Publish queues the event for broadcast without waiting for delivery
func (s *WebSocketPushService) Publish(ctx context.Context, event events.Event) error {
	select {
	case s.hub <- event:
		metrics.EventsPublished.WithLabelValues("websocket", string(event.Type)).Inc()
		return nil
	case <-s.done:
		return nil
	default:
		metrics.EventsPublishFailed.WithLabelValues("websocket", string(event.Type)).Inc()
		s.logger.WithField("event_type", event.Type).Warn("⚠️ Push hub full, dropping event")
		return nil
	}
}

func (s *WebSocketPushService) handleRegister(conn *Connection) {
	s.mutex.Lock()
	s.connections[conn.ID] = conn
	count := len(s.connections)
	s.mutex.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
	s.logger.WithFields(logrus.Fields{
		"conn_id": conn.ID,
		"address": conn.Address,
	}).Info("📱 WebSocket connection registered")

	s.sendToConnection(conn, PushMessage{
		Type:      "connection_established",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: generateMessageID(),
		Data: map[string]interface{}{
			"connection_id": conn.ID,
			"address":       conn.Address,
		},
	})
}

func (s *WebSocketPushService) handleUnregister(conn *Connection) {
	s.mutex.Lock()
	_, exists := s.connections[conn.ID]
	delete(s.connections, conn.ID)
	count := len(s.connections)
	s.mutex.Unlock()

	if !exists {
		return
	}
	close(conn.Send)
	metrics.WebSocketConnections.Set(float64(count))
	s.logger.WithField("conn_id", conn.ID).Info("📱 WebSocket connection unregistered")
}

func (s *WebSocketPushService) closeAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, conn := range s.connections {
		close(conn.Send)
		delete(s.connections, id)
	}
	metrics.WebSocketConnections.Set(0)
}

func (s *WebSocketPushService) handleBroadcast(event events.Event) {
	message := PushMessage{
		Type:      string(event.Type),
		Timestamp: event.Timestamp.Format(time.RFC3339),
		MessageID: generateMessageID(),
		Data:      event,
	}
	data, err := json.Marshal(message)
	if err != nil {
		s.logger.WithError(err).Error("❌ Failed to marshal push message")
		return
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	delivered, dropped := 0, 0
	for _, conn := range s.connections {
		if !conn.matches(event) {
			continue
		}
		select {
		case conn.Send <- data:
			delivered++
		default:
			dropped++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"tx_hash":    event.TxHash,
		"delivered":  delivered,
		"dropped":    dropped,
	}).Debug("📤 Event pushed")
}

// matches reports whether the connection subscribed to an address involved in the event
func (c *Connection) matches(event events.Event) bool {
	if c.Address == "" {
		return true
	}
	return strings.EqualFold(c.Address, event.From) || strings.EqualFold(c.Address, event.To)
}

func (s *WebSocketPushService) sendToConnection(conn *Connection, message PushMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		s.logger.WithError(err).Error("❌ Failed to marshal push message")
		return
	}
	select {
	case conn.Send <- data:
	default:
		s.logger.WithField("conn_id", conn.ID).Warn("⚠️ Send queue full")
	}
}

// HandleWebSocket upgrades the request and serves the connection until the client leaves
func (s *WebSocketPushService) HandleWebSocket(w http.ResponseWriter, r *http.Request, address string) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("❌ WebSocket upgrade failed")
		return
	}

	conn := NewConnection(ws, address)
	s.RegisterConnection(conn)

	go s.handleConnectionWrite(conn)
	s.handleConnectionRead(conn)
}

func (s *WebSocketPushService) handleConnectionWrite(conn *Connection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.WithError(err).WithField("conn_id", conn.ID).Debug("Write failed")
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleConnectionRead drains client frames so pongs and close frames are processed
func (s *WebSocketPushService) handleConnectionRead(conn *Connection) {
	defer func() {
		s.UnregisterConnection(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(512)
	conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.WithError(err).Warn("❌ WebSocket read error")
			}
			return
		}
	}
}

// GetActiveConnections returns the number of registered connections
func (s *WebSocketPushService) GetActiveConnections() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.connections)
}

func generateMessageID() string {
	return "msg_" + uuid.New().String()
}
