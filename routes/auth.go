package routes

import (
	"assetcontrol-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes настраивает маршруты для аутентификации
func SetupAuthRoutes(app *fiber.App, authController *controllers.AuthController) {
	auth := app.Group("/auth")

	// POST /auth/login - вход пользователя
	auth.Post("/login", authController.Login)

	// POST /auth/bootstrap - создать администратора из конфигурации
	auth.Post("/bootstrap", authController.Bootstrap)

	// GET /auth/health - проверка работоспособности
	auth.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Auth service is running",
			"timestamp": fiber.Map{
				"unix": fiber.Map{
					"seconds": c.Context().Time().Unix(),
				},
			},
		})
	})
}
