package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/quietpage/quietpage/app/repository"
	"github.com/quietpage/quietpage/internal/pkg/cache"
	"github.com/quietpage/quietpage/internal/pkg/database"
	"github.com/quietpage/quietpage/internal/pkg/env"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/jobqueue"
	"github.com/quietpage/quietpage/internal/pkg/router"
	"github.com/quietpage/quietpage/internal/pkg/statistics"
	"github.com/quietpage/quietpage/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	cfg, err := storage.LoadConfig()
	if err != nil {
		log.Fatalf("storage configuration: %v", err)
	}
	manager, err := storage.NewManager(cfg)
	if err != nil {
		log.Fatalf("storage backends: %v", err)
	}

	repos := repository.NewRepositories(database.GetDB())
	svc := images.NewService(manager, images.NewResolver(cfg), repos, images.NewFetcher(nil))
	collector := statistics.NewCollector(repos.Image, repos.Page)

	jobqueue.Initialize(svc).Start()

	app := fiber.New(fiber.Config{
		BodyLimit: env.GetEnvInt("MAX_UPLOAD_SIZE", 104857600), // 100 MiB
	})
	app.Use(recover.New(), logger.New())

	// static uploads, the public local backend is served directly
	app.Static("/uploads", filepath.Join(cfg.LocalPath, "uploads"), fiber.Static{
		CacheDuration: 10 * time.Second,
		Compress:      false,
		MaxAge:        604800, // 7 days
	})

	// ROUTER
	router.InstallRouter(app, svc, collector)

	return app
}
