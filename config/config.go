package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config содержит настройки приложения, прочитанные из окружения
type Config struct {
	Port        string
	DatabaseURL string // PostgreSQL; если пусто, используется SQLite
	SQLitePath  string
	CORSOrigins string

	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTExpiration time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	RequestTimeout time.Duration
}

// Load читает конфигурацию из переменных окружения, подставляя значения по умолчанию
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "assetcontrol.db"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173"),
		JWTSecret:     getEnv("JWT_SECRET", "assetcontrol-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "AssetControl"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "AssetControl"),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),
		AdminEmail:    strings.ToLower(getEnv("ADMIN_EMAIL", "admin@local.dev")),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Admin@123"),
	}

	cfg.JWTExpiration = parseDuration("JWT_EXPIRE", 8*time.Hour)
	cfg.RequestTimeout = parseDuration("REQUEST_TIMEOUT", 15*time.Second)

	return cfg
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// parseDuration понимает формат time.ParseDuration и дни вида "7d"
func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	if strings.HasSuffix(raw, "d") {
		days, err := time.ParseDuration(strings.TrimSuffix(raw, "d") + "h")
		if err == nil && days > 0 {
			return days * 24
		}
	}

	dur, err := time.ParseDuration(raw)
	if err != nil || dur <= 0 {
		log.Printf("Invalid %s: %s, using %s", key, raw, fallback)
		return fallback
	}
	return dur
}
