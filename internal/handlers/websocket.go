package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Frontend dev server runs on another origin
	},
}

// WSMessage is the envelope of every message sent to WebSocket clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventsHandler records backend mutations and fans them out to WebSocket clients.
// It keeps a bounded history so tests can assert on events published before they subscribed.
type EventsHandler struct {
	logger   arbor.ILogger
	clients  map[*websocket.Conn]*wsClient
	history  []models.Evento
	capacity int
	seq      uint64
	mu       sync.RWMutex
}

// wsClient serialises writes to one connection. replayedTo is the last seq sent by
// the "desde" replay; live events up to it were already delivered.
type wsClient struct {
	mu         sync.Mutex
	replayedTo uint64
}

// NewEventsHandler creates a hub keeping at most capacity events
func NewEventsHandler(logger arbor.ILogger, capacity int) *EventsHandler {
	if capacity <= 0 {
		capacity = 500
	}
	return &EventsHandler{
		logger:   logger,
		clients:  make(map[*websocket.Conn]*wsClient),
		capacity: capacity,
	}
}

// Publish records an event and broadcasts it
func (h *EventsHandler) Publish(eventType string, usuarioID int, payload interface{}) models.Evento {
	h.mu.Lock()
	h.seq++
	evento := models.Evento{
		Seq:       h.seq,
		Type:      eventType,
		UsuarioID: usuarioID,
		Payload:   payload,
		At:        time.Now(),
	}
	h.history = append(h.history, evento)
	if len(h.history) > h.capacity {
		h.history = h.history[len(h.history)-h.capacity:]
	}
	h.mu.Unlock()

	h.broadcast(evento)

	h.logger.Debug().
		Str("type", eventType).
		Int("usuario_id", usuarioID).
		Msgf("Event published (seq=%d)", evento.Seq)

	return evento
}

// Recent returns up to limit events, oldest first (limit <= 0 returns all)
func (h *EventsHandler) Recent(limit int) []models.Evento {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if limit > 0 && len(h.history) > limit {
		start = len(h.history) - limit
	}
	out := make([]models.Evento, len(h.history)-start)
	copy(out, h.history[start:])
	return out
}

// Since returns the events with a sequence number greater than seq
func (h *EventsHandler) Since(seq uint64) []models.Evento {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sinceLocked(seq)
}

func (h *EventsHandler) sinceLocked(seq uint64) []models.Evento {
	out := make([]models.Evento, 0)
	for _, e := range h.history {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops the recorded history. Sequence numbers keep increasing.
func (h *EventsHandler) Clear() {
	h.mu.Lock()
	h.history = nil
	h.mu.Unlock()
}

// HandleWebSocket serves GET /ws/eventos.
// The optional "desde" query parameter replays recorded events after that sequence number.
func (h *EventsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var replayFrom uint64
	replay := false
	if raw := r.URL.Query().Get("desde"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			WriteDetail(w, http.StatusUnprocessableEntity, "parâmetro 'desde' inválido: "+raw)
			return
		}
		replayFrom, replay = v, true
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	// The client is registered and the replay snapshot taken under one lock, and live
	// broadcasts wait on client.mu until the replay is written.
	client := &wsClient{}
	client.mu.Lock()
	h.mu.Lock()
	h.clients[conn] = client
	clientCount := len(h.clients)
	var backlog []models.Evento
	if replay {
		backlog = h.sinceLocked(replayFrom)
	}
	h.mu.Unlock()

	for _, evento := range backlog {
		if err := conn.WriteJSON(WSMessage{Type: "evento", Payload: evento}); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to replay event to client")
			break
		}
		client.replayedTo = evento.Seq
	}
	client.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d, replayed: %d)", clientCount, len(backlog))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", clientCount)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// RecentEventsHandler serves GET /__mock/eventos?limit=N
func (h *EventsHandler) RecentEventsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := QueryInt(r, "limit")
	if err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, h.Recent(limit))
}

// Close sends a going-away close frame to every client; their read loops then exit
// and unregister. Publishing after Close still records history.
func (h *EventsHandler) Close() {
	h.mu.RLock()
	clients := make(map[*websocket.Conn]*wsClient, len(h.clients))
	for conn, client := range h.clients {
		clients[conn] = client
	}
	h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "mock API stopping")
	deadline := time.Now().Add(time.Second)
	for conn, client := range clients {
		client.mu.Lock()
		conn.WriteControl(websocket.CloseMessage, msg, deadline)
		client.mu.Unlock()
		conn.Close()
	}
}

// ClientCount returns the number of connected WebSocket clients
func (h *EventsHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends evento to every client that has not already received it by replay
func (h *EventsHandler) broadcast(evento models.Evento) {
	data, err := json.Marshal(WSMessage{Type: "evento", Payload: evento})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal event message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	clients := make([]*wsClient, 0, len(h.clients))
	for conn, client := range h.clients {
		conns = append(conns, conn)
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		client := clients[i]
		client.mu.Lock()
		if evento.Seq <= client.replayedTo {
			client.mu.Unlock()
			continue
		}
		err := conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send event to client")
		}
	}
}
