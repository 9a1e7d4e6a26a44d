package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inventorycam/internal/logger"
)

// Event types pushed to connected clients.
const (
	EventInventory = "inventory"
	EventCapture   = "capture"
	EventCamera    = "camera"
)

// Event is the JSON envelope sent to every client.
type Event struct {
	Type    string      `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

const writeWait = 10 * time.Second

// HubService fans events out to connected websocket clients.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub. Run must be started before clients register.
func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 32),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop terminates Run and closes every client.
func (h *HubService) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Register adds a client.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes and closes a client.
func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish encodes an event and queues it for every client. Events are dropped
// when the hub is stopped or its queue is full.
func (h *HubService) Publish(eventType string, payload interface{}) {
	message, err := json.Marshal(Event{Type: eventType, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		h.logger.Error("Error encoding %s event: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		h.logger.Warning("Dropping %s event, broadcast queue full", eventType)
	}
}

// GetClientCount returns the number of connected clients.
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
