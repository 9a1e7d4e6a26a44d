package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"inventorycam/internal/logger"
)

func newHubServer(t *testing.T, hub *HubService) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubService_PublishReachesClients(t *testing.T) {
	hub := NewHubService(logger.Discard())
	go hub.Run()
	defer hub.Stop()

	server := newHubServer(t, hub)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.Publish(EventInventory, map[string]int{"apple": 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var event struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		t.Fatalf("Invalid event JSON: %v", err)
	}
	if event.Type != EventInventory || event.Payload["apple"] != 2 {
		t.Errorf("Unexpected event %s", message)
	}
}

func TestHubService_UnregisterOnDisconnect(t *testing.T) {
	hub := NewHubService(logger.Discard())
	go hub.Run()
	defer hub.Stop()

	server := newHubServer(t, hub)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubService_PublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHubService(logger.Discard())
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(EventCapture, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stopped hub")
	}
}
