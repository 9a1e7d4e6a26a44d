package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"inventorycam/internal/logger"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub registers websocket clients for event broadcasts.
type EventHub interface {
	Register(client *websocket.Conn)
	Unregister(client *websocket.Conn)
}

// EventsWebsocketHandler handles /api/events: clients receive inventory, capture
// and camera events until they disconnect.
func EventsWebsocketHandler(hub EventHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)

		hub.Register(connection)
		defer hub.Unregister(connection)

		logger.Info("Viewer connected")

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}
