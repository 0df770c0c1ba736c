package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/app/repository"
	"github.com/chatico/mapper/internal/pkg/cache"
)

// ErrNotFound means no active worker app is registered for the account.
var ErrNotFound = errors.New("no active worker app found")

// cachedWorkerApp is the typed cache payload. Only identity and routing
// fields are cached; the database row stays authoritative.
type cachedWorkerApp struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Username   string `json:"username"`
	WebhookURL string `json:"webhook_url"`
}

// Directory resolves an account ID to its registered worker app using a
// cache-aside pattern over Redis and the worker_apps table. Entries expire
// only via TTL; a stale or malformed cache entry falls through to the
// database instead of failing the lookup.
type Directory struct {
	store cache.Store
	repo  repository.WorkerAppRepository
	ttl   time.Duration
}

func NewDirectory(store cache.Store, repo repository.WorkerAppRepository, ttl time.Duration) *Directory {
	return &Directory{store: store, repo: repo, ttl: ttl}
}

func cacheKey(accountID string) string {
	return "worker_app:" + accountID
}

// Lookup returns the active worker app for an account, or ErrNotFound.
func (d *Directory) Lookup(ctx context.Context, accountID string) (*models.WorkerApp, error) {
	if app := d.fromCache(ctx, accountID); app != nil {
		return app, nil
	}

	app, err := d.repo.GetActiveByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	d.populate(ctx, app)
	return app, nil
}

// Invalidate drops the cached entry for an account. Best-effort: on
// failure staleness is still bounded by the TTL.
func (d *Directory) Invalidate(ctx context.Context, accountID string) {
	if err := d.store.Delete(ctx, cacheKey(accountID)); err != nil {
		log.Printf("worker app cache invalidation failed for account_id=%s: %v", accountID, err)
	}
}

// fromCache decodes a cached entry and re-validates it against the
// database. An entry whose ID no longer resolves to a live active row is
// treated as stale and ignored.
func (d *Directory) fromCache(ctx context.Context, accountID string) *models.WorkerApp {
	data, err := d.store.Get(ctx, cacheKey(accountID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("worker app cache read failed for account_id=%s: %v", accountID, err)
		}
		return nil
	}

	var cached cachedWorkerApp
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		log.Printf("malformed worker app cache entry for account_id=%s: %v", accountID, err)
		return nil
	}
	id, err := uuid.Parse(cached.ID)
	if err != nil {
		log.Printf("malformed worker app cache id for account_id=%s: %v", accountID, err)
		return nil
	}

	app, err := d.repo.GetByID(ctx, id)
	if err != nil || app == nil || !app.IsActive || app.AccountID != accountID {
		return nil
	}
	return app
}

func (d *Directory) populate(ctx context.Context, app *models.WorkerApp) {
	payload, err := json.Marshal(cachedWorkerApp{
		ID:         app.ID.String(),
		AccountID:  app.AccountID,
		Username:   app.Username,
		WebhookURL: app.WebhookURL,
	})
	if err != nil {
		return
	}
	if err := d.store.Set(ctx, cacheKey(app.AccountID), string(payload), d.ttl); err != nil {
		log.Printf("worker app cache write failed for account_id=%s: %v", app.AccountID, err)
	}
}
