package models

import (
	"assetcontrol-backend/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB инициализирует подключение к базе данных
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		// Используем PostgreSQL для продакшена
		return OpenDB(postgres.Open(cfg.DatabaseURL))
	}

	// Используем SQLite для разработки
	return OpenDB(sqlite.Open(cfg.SQLitePath))
}

// OpenDB открывает соединение с общими настройками GORM.
// TranslateError включен, чтобы нарушение уникальности приходило как gorm.ErrDuplicatedKey.
func OpenDB(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{TranslateError: true})
}

// Migrate создает и обновляет таблицы приложения
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Asset{})
}
