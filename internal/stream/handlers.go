package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the websocket endpoint. guard runs before the upgrade
// and may reject a topic; nil allows every topic.
func RegisterRoutes(r fiber.Router, hub *Hub, guard fiber.Handler) {
	handlers := []fiber.Handler{func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}}
	if guard != nil {
		handlers = append(handlers, guard)
	}

	handlers = append(handlers, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("topic"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
	r.Get("/ws/:topic", handlers...)
}
