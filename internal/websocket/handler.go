package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a dashboard peer to the hub and pumps frames until the
// connection drops.
func ServeWs(hub *Hub, c *websocket.Conn, username string) {
	client := &Client{Hub: hub, Conn: c, Username: username, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
