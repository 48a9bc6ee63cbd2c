package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jmylchreest/restreamr/internal/hub"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 1024
	wsSendBuffer = 32
)

// WSHandler serves per-session event streams over WebSocket.
type WSHandler struct {
	events        *hub.Hub
	streamService *service.StreamService
	logger        *slog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(events *hub.Hub, streamService *service.StreamService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		events:        events,
		streamService: streamService,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin is handled by the CORS middleware for the
			// REST API; the socket accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts the WebSocket route on the router. This bypasses huma
// since the endpoint speaks WebSocket, not JSON over HTTP.
func (h *WSHandler) Register(router chi.Router) {
	router.Get("/ws/streams/{sessionID}", h.serve)
}

// wsClient is one connected subscriber. Events are marshalled into a
// buffered send channel; a slow client that fills the buffer is treated
// as failed and dropped from the hub.
type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues an event for delivery. It never blocks: a full buffer or
// a closed client returns an error so the hub removes the subscriber.
func (c *wsClient) Send(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errors.New("subscriber closed")
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// pingMessage is a client-initiated application-level ping.
type pingMessage struct {
	Type  string          `json:"type"`
	Nonce json.RawMessage `json:"nonce,omitempty"`
}

// pongMessage answers a ping, echoing the nonce.
type pongMessage struct {
	Type       string          `json:"type"`
	Nonce      json.RawMessage `json:"nonce,omitempty"`
	ServerTime int64           `json:"server_time"`
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "sessionID")
	id, err := models.ParseULID(rawID)
	if err != nil {
		http.Error(w, "invalid session ID", http.StatusBadRequest)
		return
	}

	if _, err := h.streamService.Get(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		h.logger.Warn("websocket upgrade failed",
			slog.String("session_id", rawID),
			slog.String("error", err.Error()),
		)
		return
	}

	client := newWSClient(conn)
	sessionKey := id.String()

	h.events.Join(sessionKey, client)
	h.logger.Debug("websocket subscriber joined", slog.String("session_id", sessionKey))

	// New subscribers get the latest telemetry snapshot right away
	// instead of waiting for the next stats line.
	if stats, ok := h.events.LatestStats(sessionKey); ok {
		_ = client.Send(stats)
	}

	go h.writePump(client)
	h.readPump(client)

	h.events.Leave(sessionKey, client)
	client.close()
	_ = conn.Close()
	h.logger.Debug("websocket subscriber left", slog.String("session_id", sessionKey))
}

// readPump consumes client messages until the connection drops,
// answering application-level pings.
func (h *WSHandler) readPump(c *wsClient) {
	c.conn.SetReadLimit(wsMaxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg pingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong := pongMessage{
				Type:       "pong",
				Nonce:      msg.Nonce,
				ServerTime: time.Now().UnixMilli(),
			}
			if err := c.Send(pong); err != nil {
				return
			}
		}
	}
}

// writePump delivers queued events and keeps the connection alive with
// protocol-level pings.
func (h *WSHandler) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
