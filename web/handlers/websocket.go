package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// TelemetryHub fans search telemetry out to connected WebSocket
// clients.
type TelemetryHub struct {
	clients    map[telemetryClient]bool
	broadcast  chan interface{}
	register   chan telemetryClient
	unregister chan telemetryClient
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc

	// allowedOrigins gates browser connections; empty allows same-host
	// only via the websocket library's default check.
	allowedOrigins []string
}

// telemetryClient allows both real connections and test fakes.
type telemetryClient interface {
	sendChannel() chan []byte
	shutdown()
}

// wsClient is a live WebSocket connection.
type wsClient struct {
	hub  *TelemetryHub
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) sendChannel() chan []byte { return c.send }

func (c *wsClient) shutdown() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewTelemetryHub creates a hub that accepts connections from the
// given host:port origins.
func NewTelemetryHub(allowedOrigins ...string) *TelemetryHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &TelemetryHub{
		clients:        make(map[telemetryClient]bool),
		broadcast:      make(chan interface{}, 256),
		register:       make(chan telemetryClient),
		unregister:     make(chan telemetryClient),
		ctx:            ctx,
		cancel:         cancel,
		allowedOrigins: allowedOrigins,
	}
}

// Run processes register, unregister, and broadcast events until Stop.
func (h *TelemetryHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("telemetry client connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.sendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("telemetry client disconnected (total: %d)", count)

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("ERROR: failed to marshal telemetry message: %v", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.sendChannel() <- data:
				default:
					// Slow client, drop it rather than block the hub.
					close(client.sendChannel())
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *TelemetryHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.sendChannel())
		client.shutdown()
	}
	h.clients = make(map[telemetryClient]bool)
	h.mu.Unlock()
}

// Broadcast queues a message for every connected client. Messages are
// dropped when the hub is saturated.
func (h *TelemetryHub) Broadcast(message interface{}) {
	select {
	case h.broadcast <- message:
	default:
		log.Println("WARNING: telemetry broadcast channel full, dropping message")
	}
}

// ServeHTTP handles WebSocket upgrade requests at GET /api/telemetry.
func (h *TelemetryHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		log.Printf("ERROR: WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump forwards queued telemetry to the connection.
func (c *wsClient) writePump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			return
		}
	}
}

// readPump drains client messages to detect disconnects. Clients do
// not send anything meaningful today.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			return
		}
	}
}

// OriginPatterns builds the allowed origin list for a host and port.
func OriginPatterns(host string, port int) []string {
	return []string{
		fmt.Sprintf("%s:%d", host, port),
		fmt.Sprintf("localhost:%d", port),
	}
}
