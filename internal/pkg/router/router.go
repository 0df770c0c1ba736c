package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/chatico/mapper/app/controllers"
	"github.com/chatico/mapper/internal/pkg/middleware"
	"github.com/chatico/mapper/internal/pkg/signature"
)

// Router wires the HTTP surface: the webhook endpoint and the worker app
// administration API.
type Router struct {
	webhook   *controllers.WebhookController
	workerApp *controllers.WorkerAppController
	comment   *controllers.CommentController
	verifier  *signature.Verifier
	adminKey  string
}

func New(
	webhook *controllers.WebhookController,
	workerApp *controllers.WorkerAppController,
	comment *controllers.CommentController,
	verifier *signature.Verifier,
	adminKey string,
) *Router {
	return &Router{
		webhook:   webhook,
		workerApp: workerApp,
		comment:   comment,
		verifier:  verifier,
		adminKey:  adminKey,
	}
}

func (r *Router) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	hook := v1.Group("/webhook", middleware.WebhookSignatureMiddleware(r.verifier))
	hook.Get("/", r.webhook.HandleVerify)
	hook.Post("/", r.webhook.HandleReceive)
	hook.Get("/health", r.webhook.HandleHealth)

	admin := v1.Group("/worker-apps", middleware.AdminKeyMiddleware(r.adminKey))
	admin.Post("/", r.workerApp.HandleCreate)
	admin.Get("/", r.workerApp.HandleList)
	admin.Get("/:id", r.workerApp.HandleGet)
	admin.Get("/:id/logs", r.workerApp.HandleLogs)
	admin.Put("/:id", r.workerApp.HandleUpdate)
	admin.Delete("/:id", r.workerApp.HandleDelete)

	comments := v1.Group("/comments", middleware.AdminKeyMiddleware(r.adminKey))
	comments.Get("/:id", r.comment.HandleGet)
}
