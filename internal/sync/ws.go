package sync

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // OK for local use; restrict in production
	},
}

// WSHandler upgrades the request and attaches the connection to the hub
// until the client goes away. Incoming messages are drained and ignored.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.AddWS(ws)
		log.Printf("[ws] client connected: %s", ws.RemoteAddr())

		if b, err := json.Marshal(welcome{Type: "welcome", Transport: "ws", Clients: hub.Stats().WSClients}); err == nil {
			_ = ws.WriteMessage(websocket.TextMessage, b)
		}

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Printf("[ws] client disconnected: %s", ws.RemoteAddr())
	}
}
