package main

import (
	"context"
	"errors"
	"log"
	"time"

	"assetcontrol-backend/config"
	"assetcontrol-backend/controllers"
	"assetcontrol-backend/routes"
	"assetcontrol-backend/services"
	"assetcontrol-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// setupApp собирает Fiber приложение; hub может быть nil (лента изменений отключена)
func setupApp(db *gorm.DB, cfg *config.Config, hub *services.Hub) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}

			// Детали внутренних ошибок остаются в логе
			log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(requestTimeout(cfg.RequestTimeout))

	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiration)

	assetService := services.NewAssetService(db)
	if hub != nil {
		assetService.WithNotifier(hub)
	}
	authService := services.NewAuthService(db, jwtManager, cfg)

	routes.SetupAuthRoutes(app, controllers.NewAuthController(authService))
	routes.SetupAssetRoutes(app, controllers.NewAssetController(assetService), jwtManager)
	if hub != nil {
		routes.SetupWebSocketRoutes(app, hub)
	}

	// Общий health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "AssetControl Backend is running",
			"timestamp": time.Now().Unix(),
		})
	})

	return app
}

// requestTimeout ограничивает время работы с базой в рамках одного запроса
func requestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}
