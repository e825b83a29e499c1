package controllers

import (
	"errors"
	"log"
	"regexp"
	"strings"

	"assetcontrol-backend/services"

	"github.com/gofiber/fiber/v2"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthController контроллер для аутентификации
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser профиль пользователя в ответе аутентификации
type AuthUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   string    `json:"error,omitempty"`
	Token   string    `json:"token,omitempty"`
	User    *AuthUser `json:"user,omitempty"`
}

// Login обрабатывает вход пользователя
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest

	if err := c.BodyParser(&req); err != nil {
		return authFailure(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validateLoginRequest(&req); err != nil {
		return authFailure(c, fiber.StatusBadRequest, err.Error())
	}

	token, user, err := ac.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return authFailure(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		log.Printf("Login failed: %v", err)
		return authFailure(c, fiber.StatusInternalServerError, "Failed to sign in")
	}

	return c.JSON(AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User: &AuthUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}

// Bootstrap создает администратора из конфигурации (идемпотентно)
func (ac *AuthController) Bootstrap(c *fiber.Ctx) error {
	created, email, err := ac.authService.Bootstrap(c.UserContext())
	if err != nil {
		log.Printf("Bootstrap failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create admin user",
		})
	}

	if !created {
		return c.JSON(fiber.Map{
			"created": false,
			"email":   email,
			"note":    "User already exists",
		})
	}

	return c.JSON(fiber.Map{
		"created": true,
		"email":   email,
	})
}

func authFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(AuthResponse{
		Success: false,
		Message: message,
		Error:   message,
	})
}

func validateLoginRequest(req *LoginRequest) error {
	if !emailRegex.MatchString(strings.TrimSpace(req.Email)) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid email format")
	}
	if req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Password is required")
	}
	return nil
}
