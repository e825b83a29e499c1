package routes

import (
	"assetcontrol-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SetupWebSocketRoutes подключает ленту изменений активов
func SetupWebSocketRoutes(app *fiber.App, hub *services.Hub) {
	// GET /ws?token=... - только запросы на апгрейд соединения
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(hub.HandleWebSocket))
}
