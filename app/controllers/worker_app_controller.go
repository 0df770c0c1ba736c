package controllers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/app/repository"
	"github.com/chatico/mapper/internal/pkg/directory"
)

// WorkerAppController administers the worker app registry. The webhook
// pipeline only ever reads worker apps; every mutation goes through here.
type WorkerAppController struct {
	repo      repository.WorkerAppRepository
	logs      repository.WebhookLogRepository
	comments  repository.CommentRepository
	directory *directory.Directory
	validate  *validator.Validate
}

func NewWorkerAppController(
	repo repository.WorkerAppRepository,
	logs repository.WebhookLogRepository,
	comments repository.CommentRepository,
	dir *directory.Directory,
) *WorkerAppController {
	return &WorkerAppController{
		repo:      repo,
		logs:      logs,
		comments:  comments,
		directory: dir,
		validate:  validator.New(),
	}
}

type workerAppRequest struct {
	AccountID  string `json:"account_id" validate:"required,max=255"`
	Username   string `json:"username" validate:"required,max=255"`
	WebhookURL string `json:"webhook_url" validate:"required,url,max=500"`
	IsActive   *bool  `json:"is_active"`
}

// HandleCreate registers a new worker app.
func (wac *WorkerAppController) HandleCreate(c *fiber.Ctx) error {
	var req workerAppRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if err := wac.validate.Struct(req); err != nil {
		return unprocessable(c, err.Error())
	}

	app := &models.WorkerApp{
		AccountID:  req.AccountID,
		Username:   req.Username,
		WebhookURL: req.WebhookURL,
		IsActive:   true,
	}
	if req.IsActive != nil {
		app.IsActive = *req.IsActive
	}

	if err := wac.repo.Create(c.UserContext(), app); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "conflict",
				"message": "A worker app is already registered for this account",
			})
		}
		log.Printf("failed to create worker app: %v", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(app)
}

// HandleList returns registered worker apps with simple pagination.
func (wac *WorkerAppController) HandleList(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	apps, err := wac.repo.List(c.UserContext(), offset, limit)
	if err != nil {
		log.Printf("failed to list worker apps: %v", err)
		return internalError(c)
	}
	total, err := wac.repo.Count(c.UserContext())
	if err != nil {
		log.Printf("failed to count worker apps: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"items": apps, "total": total, "offset": offset, "limit": limit})
}

// HandleGet returns one worker app by ID.
func (wac *WorkerAppController) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid worker app ID")
	}

	app, err := wac.repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("failed to load worker app %s: %v", id, err)
		return internalError(c)
	}
	return c.JSON(app)
}

// HandleLogs returns the delivery audit trail for a worker app's account,
// newest first, together with how many comments this service has stored
// for the account.
func (wac *WorkerAppController) HandleLogs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid worker app ID")
	}

	app, err := wac.repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("failed to load worker app %s: %v", id, err)
		return internalError(c)
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := wac.logs.ListByAccountID(c.UserContext(), app.AccountID, offset, limit)
	if err != nil {
		log.Printf("failed to list webhook logs for account_id=%s: %v", app.AccountID, err)
		return internalError(c)
	}
	stored, err := wac.comments.CountByAccountID(c.UserContext(), app.AccountID)
	if err != nil {
		log.Printf("failed to count comments for account_id=%s: %v", app.AccountID, err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"items":           entries,
		"comments_stored": stored,
		"offset":          offset,
		"limit":           limit,
	})
}

// HandleUpdate replaces the mutable fields of a worker app and drops its
// directory cache entry so the change takes effect before the TTL.
func (wac *WorkerAppController) HandleUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid worker app ID")
	}

	var req workerAppRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if err := wac.validate.Struct(req); err != nil {
		return unprocessable(c, err.Error())
	}

	app, err := wac.repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("failed to load worker app %s: %v", id, err)
		return internalError(c)
	}

	previousAccountID := app.AccountID
	app.AccountID = req.AccountID
	app.Username = req.Username
	app.WebhookURL = req.WebhookURL
	if req.IsActive != nil {
		app.IsActive = *req.IsActive
	}

	if err := wac.repo.Update(c.UserContext(), app); err != nil {
		log.Printf("failed to update worker app %s: %v", id, err)
		return internalError(c)
	}

	wac.directory.Invalidate(c.UserContext(), previousAccountID)
	if app.AccountID != previousAccountID {
		wac.directory.Invalidate(c.UserContext(), app.AccountID)
	}

	return c.JSON(app)
}

// HandleDelete removes a worker app and its directory cache entry.
func (wac *WorkerAppController) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid worker app ID")
	}

	app, err := wac.repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		log.Printf("failed to load worker app %s: %v", id, err)
		return internalError(c)
	}

	if err := wac.repo.Delete(c.UserContext(), id); err != nil {
		log.Printf("failed to delete worker app %s: %v", id, err)
		return internalError(c)
	}

	wac.directory.Invalidate(c.UserContext(), app.AccountID)
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": message})
}

func unprocessable(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unprocessable_entity", "message": message})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Worker app not found"})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Something went wrong"})
}
