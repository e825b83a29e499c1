package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetcontrol-backend/config"
	"assetcontrol-backend/models"
	"assetcontrol-backend/services"
	"assetcontrol-backend/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	// Инициализация базы данных
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Автомиграция
	if err := models.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Инициализация администратора
	initDefaultAdmin(db, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := services.NewHub([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)
	app := setupApp(db, cfg, hub)

	g, gctx := errgroup.WithContext(ctx)

	// WebSocket хаб живет до остановки процесса
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

// initDefaultAdmin создает администратора из конфигурации при первом запуске
func initDefaultAdmin(db *gorm.DB, cfg *config.Config) {
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiration)
	authService := services.NewAuthService(db, jwtManager, cfg)

	created, email, err := authService.Bootstrap(context.Background())
	if err != nil {
		log.Printf("Ошибка при создании администратора '%s': %v", email, err)
		return
	}
	if !created {
		log.Printf("Администратор уже существует (%s)", email)
	}
}
