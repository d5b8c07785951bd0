package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/sources"
)

// Hub streams aggregate reports to connected WebSocket clients. A report is
// pushed after every completed fan-out.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader

	// Client management
	mu      sync.RWMutex
	clients map[*wsClient]bool

	// Completed reports awaiting broadcast
	reports chan *sources.Report

	ctx    context.Context
	cancel context.CancelFunc
}

// wsClient represents one connected WebSocket client.
type wsClient struct {
	conn            *websocket.Conn
	send            chan []byte
	hub             *Hub
	subscribedAll   bool
	subscribedNames map[string]bool
	mu              sync.RWMutex
}

// clientMessage represents a message sent by a client.
type clientMessage struct {
	Type    string   `json:"type"`    // "subscribe", "unsubscribe", "ping"
	Sources []string `json:"sources"` // Source names to (un)subscribe
}

// reportMessage is sent to clients after each fan-out.
type reportMessage struct {
	Type              string                     `json:"type"` // "report"
	Timestamp         string                     `json:"timestamp"`
	BitcoinPrices     map[string]sources.Outcome `json:"bitcoin_prices"`
	SuccessfulSources int                        `json:"successful_sources"`
	FailedSources     int                        `json:"failed_sources"`
}

// NewHub creates a WebSocket hub and starts its broadcast loop.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]bool),
		reports: make(chan *sources.Report, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.broadcastLoop()
	return h
}

// Stop shuts the broadcast loop down. Connected clients are closed by their
// own pumps once the connection drops.
func (h *Hub) Stop() {
	h.cancel()
}

// Broadcast queues a report for delivery to all subscribed clients.
func (h *Hub) Broadcast(report *sources.Report) {
	select {
	case h.reports <- report:
	case <-time.After(100 * time.Millisecond):
		h.logger.Warn("Report channel full, dropping broadcast")
	}
}

// handleWebSocket upgrades the connection and registers the client.
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &wsClient{
		conn:            conn,
		send:            make(chan []byte, 256),
		hub:             h,
		subscribedAll:   true, // Subscribe to all by default
		subscribedNames: make(map[string]bool),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	h.logger.Info("New WebSocket client connected", "remote", conn.RemoteAddr())
}

func (h *Hub) unregisterClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) broadcastLoop() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case report := <-h.reports:
			h.broadcast(report)
		}
	}
}

// broadcast sends one report to every subscribed client. Clients see only
// the outcomes of sources they subscribed to.
func (h *Hub) broadcast(report *sources.Report) {
	if len(report.Outcomes) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		outcomes := client.filterOutcomes(report.Outcomes)
		if len(outcomes) == 0 {
			continue
		}

		successes, failures := 0, 0
		for _, outcome := range outcomes {
			if outcome.OK() {
				successes++
			} else {
				failures++
			}
		}

		data, err := json.Marshal(reportMessage{
			Type:              "report",
			Timestamp:         report.Timestamp.Format(time.RFC3339),
			BitcoinPrices:     outcomes,
			SuccessfulSources: successes,
			FailedSources:     failures,
		})
		if err != nil {
			h.logger.Error("Failed to marshal report message", "error", err)
			return
		}

		select {
		case client.send <- data:
		default:
			h.logger.Warn("Client send buffer full, skipping report")
		}
	}
}

// writePump sends messages to the WebSocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage processes client messages.
func (c *wsClient) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.logger.Warn("Invalid client message", "error", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(msg.Sources)
	case "unsubscribe":
		c.unsubscribe(msg.Sources)
	case "ping":
		c.sendPong()
	default:
		c.hub.logger.Warn("Unknown message type", "type", msg.Type)
	}
}

// subscribe subscribes the client to specific source names. Empty or "*"
// means all sources.
func (c *wsClient) subscribe(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(names) == 0 || (len(names) == 1 && names[0] == "*") {
		c.subscribedAll = true
		c.subscribedNames = make(map[string]bool)
	} else {
		c.subscribedAll = false
		for _, name := range names {
			c.subscribedNames[name] = true
		}
	}

	c.hub.logger.Debug("Client subscribed", "sources", names)
}

// unsubscribe removes specific source names. Empty or "*" clears everything.
func (c *wsClient) unsubscribe(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(names) == 0 || (len(names) == 1 && names[0] == "*") {
		c.subscribedAll = false
		c.subscribedNames = make(map[string]bool)
	} else {
		for _, name := range names {
			delete(c.subscribedNames, name)
		}
	}

	c.hub.logger.Debug("Client unsubscribed", "sources", names)
}

// filterOutcomes returns the subset of outcomes the client subscribed to.
func (c *wsClient) filterOutcomes(outcomes map[string]sources.Outcome) map[string]sources.Outcome {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.subscribedAll {
		return outcomes
	}

	filtered := make(map[string]sources.Outcome, len(c.subscribedNames))
	for name, outcome := range outcomes {
		if c.subscribedNames[name] {
			filtered[name] = outcome
		}
	}
	return filtered
}

// sendPong sends a pong response.
func (c *wsClient) sendPong() {
	data, _ := json.Marshal(map[string]string{"type": "pong"})
	select {
	case c.send <- data:
	default:
	}
}
