package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:vehicleId", websocket.New(func(c *websocket.Conn) {
		vehicleID := c.Params("vehicleId")
		client := hub.Register(vehicleID)
		defer hub.Unregister(client)

		// Unregister closes Send, which stops the writer.
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
