package routes

import (
	"assetcontrol-backend/controllers"
	"assetcontrol-backend/models"
	"assetcontrol-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupAssetRoutes настраивает маршруты для управления активами
func SetupAssetRoutes(app *fiber.App, assetController *controllers.AssetController, jwtManager *utils.JWTManager) {
	assets := app.Group("/assets")

	// Изменяющие операции доступны только администратору
	adminOnly := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{jwtManager.AuthMiddleware, utils.RequireRole(models.RoleAdmin), handler}
	}

	// GET /assets - список активов (публичный доступ)
	assets.Get("/", assetController.ListAssets)

	// GET /assets/:id - получить актив (публичный доступ)
	assets.Get("/:id", assetController.GetAsset)

	// POST /assets - создать актив
	assets.Post("/", adminOnly(assetController.CreateAsset)...)

	// PUT /assets/:id - переименовать актив
	assets.Put("/:id", adminOnly(assetController.UpdateAsset)...)

	// DELETE /assets/:id - удалить актив
	assets.Delete("/:id", adminOnly(assetController.DeleteAsset)...)

	// POST /assets/:id/checkout - выдать актив
	assets.Post("/:id/checkout", adminOnly(assetController.CheckoutAsset)...)

	// POST /assets/:id/checkin - вернуть актив
	assets.Post("/:id/checkin", adminOnly(assetController.CheckinAsset)...)
}
