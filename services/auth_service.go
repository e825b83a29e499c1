package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"assetcontrol-backend/config"
	"assetcontrol-backend/models"
	"assetcontrol-backend/utils"

	"gorm.io/gorm"
)

// AuthService проверяет учетные данные и выпускает токены
type AuthService struct {
	db  *gorm.DB
	jwt *utils.JWTManager
	cfg *config.Config
}

// NewAuthService создает сервис аутентификации
func NewAuthService(db *gorm.DB, jwt *utils.JWTManager, cfg *config.Config) *AuthService {
	return &AuthService{db: db, jwt: jwt, cfg: cfg}
}

// Login проверяет email и пароль и возвращает токен доступа
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateJWT(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}

// Bootstrap создает администратора из конфигурации, если его еще нет
func (s *AuthService) Bootstrap(ctx context.Context) (bool, string, error) {
	email := normalizeEmail(s.cfg.AdminEmail)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, email, err
	}
	if count > 0 {
		return false, email, nil
	}

	hash, err := utils.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return false, email, err
	}

	admin := models.User{
		Name:         s.cfg.AdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if isDuplicateKey(err) {
			return false, email, nil
		}
		return false, email, err
	}

	log.Printf("Создан администратор: %s", email)
	return true, email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
