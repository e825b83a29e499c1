package controllers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"assetcontrol-backend/services"

	"github.com/gofiber/fiber/v2"
)

// AssetController обрабатывает HTTP запросы для активов
type AssetController struct {
	assetService *services.AssetService
}

// NewAssetController создает новый контроллер активов
func NewAssetController(assetService *services.AssetService) *AssetController {
	return &AssetController{assetService: assetService}
}

// CreateAssetRequest тело запроса на создание актива
type CreateAssetRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// UpdateAssetRequest тело запроса на переименование актива
type UpdateAssetRequest struct {
	Name string `json:"name"`
}

// CheckoutRequest тело запроса на выдачу актива
type CheckoutRequest struct {
	TakenBy string  `json:"takenBy"`
	Note    *string `json:"note,omitempty"`
}

// ListAssets возвращает страницу активов (публичный доступ)
func (ac *AssetController) ListAssets(c *fiber.Ctx) error {
	query := services.NewAssetQuery()

	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			query.Page = page
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if pageSize, err := strconv.Atoi(raw); err == nil {
			query.PageSize = pageSize
		}
	}
	query.Search = c.Query("search")
	query.SortBy = services.ParseAssetSortField(c.Query("sortBy"))
	query.SortDir = services.ParseSortDirection(c.Query("sortDir"))

	result, err := ac.assetService.List(c.UserContext(), query)
	if err != nil {
		return assetError(c, err)
	}

	return c.JSON(result)
}

// GetAsset возвращает актив по ID (публичный доступ)
func (ac *AssetController) GetAsset(c *fiber.Ctx) error {
	id, ok := parseAssetID(c)
	if !ok {
		return badRequest(c, "Invalid asset ID")
	}

	asset, err := ac.assetService.Get(c.UserContext(), id)
	if err != nil {
		return assetError(c, err)
	}

	return c.JSON(asset)
}

// CreateAsset создает актив (только администратор)
func (ac *AssetController) CreateAsset(c *fiber.Ctx) error {
	var req CreateAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateCreateAssetRequest(&req); err != nil {
		return badRequest(c, err.Error())
	}

	asset, err := ac.assetService.Create(c.UserContext(), req.Name, req.Code)
	if err != nil {
		return assetError(c, err)
	}

	c.Location("/assets/" + strconv.FormatUint(uint64(asset.ID), 10))
	return c.Status(fiber.StatusCreated).JSON(asset)
}

// UpdateAsset переименовывает актив (только администратор)
func (ac *AssetController) UpdateAsset(c *fiber.Ctx) error {
	id, ok := parseAssetID(c)
	if !ok {
		return badRequest(c, "Invalid asset ID")
	}

	var req UpdateAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateName(req.Name); err != nil {
		return badRequest(c, err.Error())
	}

	asset, err := ac.assetService.Update(c.UserContext(), id, req.Name)
	if err != nil {
		return assetError(c, err)
	}

	return c.JSON(asset)
}

// DeleteAsset удаляет актив (только администратор)
func (ac *AssetController) DeleteAsset(c *fiber.Ctx) error {
	id, ok := parseAssetID(c)
	if !ok {
		return badRequest(c, "Invalid asset ID")
	}

	if err := ac.assetService.Delete(c.UserContext(), id); err != nil {
		return assetError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CheckoutAsset выдает актив (только администратор)
func (ac *AssetController) CheckoutAsset(c *fiber.Ctx) error {
	id, ok := parseAssetID(c)
	if !ok {
		return badRequest(c, "Invalid asset ID")
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateCheckoutRequest(&req); err != nil {
		return badRequest(c, err.Error())
	}

	asset, err := ac.assetService.Checkout(c.UserContext(), id, req.TakenBy, req.Note)
	if err != nil {
		return assetError(c, err)
	}

	return c.JSON(asset)
}

// CheckinAsset возвращает актив (только администратор)
func (ac *AssetController) CheckinAsset(c *fiber.Ctx) error {
	id, ok := parseAssetID(c)
	if !ok {
		return badRequest(c, "Invalid asset ID")
	}

	asset, err := ac.assetService.Checkin(c.UserContext(), id)
	if err != nil {
		return assetError(c, err)
	}

	return c.JSON(asset)
}

// Вспомогательные функции

func parseAssetID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// assetError переводит ошибки сервиса в HTTP ответы
func assetError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAssetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Asset not found",
		})
	case errors.Is(err, services.ErrAssetCodeTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Asset code is already registered",
		})
	case errors.Is(err, services.ErrAssetAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Asset is already in use",
		})
	case errors.Is(err, services.ErrAssetAlreadyAvailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Asset is already available",
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Request cancelled",
		})
	default:
		log.Printf("Asset request %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

func validateCreateAssetRequest(req *CreateAssetRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Code is required")
	}
	if n := utf8.RuneCountInString(code); n < 2 || n > 50 {
		return fiber.NewError(fiber.StatusBadRequest, "Code must be between 2 and 50 characters")
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "Name must be between 2 and 100 characters")
	}
	return nil
}

func validateCheckoutRequest(req *CheckoutRequest) error {
	takenBy := strings.TrimSpace(req.TakenBy)
	if takenBy == "" {
		return fiber.NewError(fiber.StatusBadRequest, "TakenBy is required")
	}
	if utf8.RuneCountInString(takenBy) > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "TakenBy must be at most 100 characters")
	}
	if req.Note != nil && utf8.RuneCountInString(strings.TrimSpace(*req.Note)) > 200 {
		return fiber.NewError(fiber.StatusBadRequest, "Note must be at most 200 characters")
	}
	return nil
}
