package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/trocalar/TrocaLar/app/controllers"
	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/billing"
	"github.com/trocalar/TrocaLar/internal/pkg/cache"
	"github.com/trocalar/TrocaLar/internal/pkg/constants"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/env"
	"github.com/trocalar/TrocaLar/internal/pkg/jobqueue"
	"github.com/trocalar/TrocaLar/internal/pkg/router"
	"github.com/trocalar/TrocaLar/internal/pkg/storage"
)

func main() {
	app := NewApplication()

	// thumbnail generation, S3 backup and view counter flushing
	jobqueue.GetManager().Start()
	defer jobqueue.GetManager().Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	if err := models.LoadSettings(db); err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	repository.InitializeFactory(db)

	// Billing wiring: the Asaas client doubles as payment gateway and
	// customer directory. Tests swap both through the same constructors.
	asaas := billing.NewAsaasClientFromEnv()
	billingRepo := billing.NewRepository(db)
	billingService := billing.NewService(billingRepo, asaas)
	billingController := controllers.NewBillingController(billingService, billingRepo, asaas)

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // photo uploads cap at 10 MiB plus form overhead
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// static uploads (originals and thumbnails)
	app.Static(constants.UploadsRoute, storage.NewManager().BasePath(), fiber.Static{
		CacheDuration: 10 * time.Second,
		Compress:      false,
		MaxAge:        604800, // 7 days
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, billingController)

	return app
}
