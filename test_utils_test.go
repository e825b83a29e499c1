package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assetcontrol-backend/config"
	"assetcontrol-backend/models"
	"assetcontrol-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testConfig возвращает конфигурацию для тестов без чтения окружения
func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		CORSOrigins:    "http://localhost:3000",
		JWTSecret:      "test-secret-key",
		JWTIssuer:      "AssetControl",
		JWTAudience:    "AssetControl",
		JWTExpiration:  time.Hour,
		AdminName:      "Admin",
		AdminEmail:     "admin@local.dev",
		AdminPassword:  "Admin@123",
		RequestTimeout: 5 * time.Second,
	}
}

// setupTestDB создает тестовую базу данных в памяти
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := models.OpenDB(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

// testEnv приложение и его зависимости для HTTP тестов
type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

// newTestEnv собирает приложение на тестовой базе
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	db := setupTestDB(t)
	return &testEnv{app: setupApp(db, cfg, nil), db: db, cfg: cfg}
}

// createTestUser создает пользователя с указанной ролью
func createTestUser(t *testing.T, db *gorm.DB, email, password, role string) models.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Name:         "Test " + role,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// generateTestJWT создает токен для пользователя с ключом из конфигурации
func generateTestJWT(t *testing.T, cfg *config.Config, user models.User) string {
	t.Helper()

	manager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiration)
	token, err := manager.GenerateJWT(user.ID, user.Email, user.Name, user.Role)
	require.NoError(t, err)
	return token
}

// newJSONRequest создает запрос; body сериализуется в JSON, если не nil
func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// doRequest выполняет запрос к приложению с необязательным Bearer токеном
func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	req := newJSONRequest(t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeJSON читает тело ответа в out
func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
