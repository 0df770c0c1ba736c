package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/chatico/mapper/app/controllers"
	"github.com/chatico/mapper/app/repository"
	"github.com/chatico/mapper/internal/pkg/audit"
	"github.com/chatico/mapper/internal/pkg/cache"
	"github.com/chatico/mapper/internal/pkg/config"
	"github.com/chatico/mapper/internal/pkg/database"
	"github.com/chatico/mapper/internal/pkg/directory"
	"github.com/chatico/mapper/internal/pkg/env"
	"github.com/chatico/mapper/internal/pkg/forwarder"
	"github.com/chatico/mapper/internal/pkg/instagram"
	"github.com/chatico/mapper/internal/pkg/mediaowner"
	"github.com/chatico/mapper/internal/pkg/router"
	"github.com/chatico/mapper/internal/pkg/signature"
	"github.com/chatico/mapper/internal/pkg/webhook"
)

func main() {
	env.SetupEnvFile()
	cfg := config.Load()

	app, err := NewApplication(cfg)
	if err != nil {
		log.Fatal(err)
	}

	err = app.Listen(fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port))
	log.Fatal(err)
}

// NewApplication builds the full object graph with explicit constructor
// wiring and returns the configured Fiber app.
func NewApplication(cfg *config.Config) (*fiber.App, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	store := cache.NewRedis(cfg.Cache)
	repos := repository.NewRepositories(db)

	graphClient := instagram.NewGraphClient(cfg.Instagram)
	resolver := mediaowner.NewResolver(store, repos.Media, graphClient, cfg.Cache.MediaOwnerTTL)
	dir := directory.NewDirectory(store, repos.WorkerApp, cfg.Cache.WorkerAppTTL)
	fwd := forwarder.NewHTTPForwarder(cfg.Webhook.ForwardTimeout)
	auditLog := audit.NewLogger(repos.WebhookLog)
	processor := webhook.NewProcessor(repos.Comment, resolver, dir, fwd, auditLog)

	verifyEnabled := !cfg.Webhook.SkipVerification
	if !verifyEnabled {
		log.Print("Warning: webhook signature verification is DISABLED")
	}
	verifier := signature.NewVerifier(cfg.Webhook.AppSecret, verifyEnabled)

	webhookController := controllers.NewWebhookController(cfg.Webhook.VerifyToken, processor)
	workerAppController := controllers.NewWorkerAppController(repos.WorkerApp, repos.WebhookLog, repos.Comment, dir)
	commentController := controllers.NewCommentController(repos.Comment)

	app := fiber.New(fiber.Config{
		AppName: "chatico-mapper",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			cfg.Admin.MetricsUser: cfg.Admin.MetricsPassword,
		},
	}), monitor.New())

	// ROUTER
	router.New(webhookController, workerAppController, commentController, verifier, cfg.Admin.APIKey).InstallRouter(app)

	return app, nil
}
