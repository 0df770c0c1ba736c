package mediaowner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/app/repository"
	"github.com/chatico/mapper/internal/pkg/cache"
	"github.com/chatico/mapper/internal/pkg/instagram"
)

// Source names the tier a resolution came from, for observability.
type Source string

const (
	SourceCache    Source = "cache"
	SourceDatabase Source = "database"
	SourceAPI      Source = "api"
)

// Owner is a resolved media-to-account mapping with its provenance.
type Owner struct {
	AccountID string
	Username  string
	Source    Source
}

// Resolver maps a media ID to its owning account across three tiers of
// increasing latency: Redis, the media table, the Instagram Graph API.
// Exactly one tier answers per call; cache and database transport errors
// count as misses and never abort a resolution.
type Resolver struct {
	store cache.Store
	media repository.MediaRepository
	api   instagram.Client
	ttl   time.Duration
}

func NewResolver(store cache.Store, media repository.MediaRepository, api instagram.Client, ttl time.Duration) *Resolver {
	return &Resolver{store: store, media: media, api: api, ttl: ttl}
}

func cacheKey(mediaID string) string {
	return "media_owner:" + mediaID
}

// Resolve returns the owning account for a media item. A failure at the
// API tier is terminal for the call; nothing is written on failure.
func (r *Resolver) Resolve(ctx context.Context, mediaID string) (*Owner, error) {
	// Tier 1: cache.
	if accountID, err := r.store.Get(ctx, cacheKey(mediaID)); err == nil && accountID != "" {
		return &Owner{AccountID: accountID, Source: SourceCache}, nil
	} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("media owner cache read failed for media_id=%s: %v", mediaID, err)
	}

	// Tier 2: database.
	media, err := r.media.GetByMediaID(ctx, mediaID)
	if err != nil {
		log.Printf("media owner db lookup failed for media_id=%s: %v", mediaID, err)
	}
	if media != nil {
		if err := r.store.Set(ctx, cacheKey(mediaID), media.AccountID, r.ttl); err != nil {
			log.Printf("media owner cache write failed for media_id=%s: %v", mediaID, err)
		}
		return &Owner{AccountID: media.AccountID, Username: media.Username, Source: SourceDatabase}, nil
	}

	// Tier 3: Instagram Graph API.
	owner, err := r.api.GetMediaOwner(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("resolve media owner for media_id=%s: %w", mediaID, err)
	}

	// Write-through to database and cache. Both are best-effort: the
	// resolution already succeeded.
	if err := r.media.Upsert(ctx, &models.Media{
		MediaID:   mediaID,
		AccountID: owner.AccountID,
		Username:  owner.Username,
	}); err != nil {
		log.Printf("media owner db write failed for media_id=%s: %v", mediaID, err)
	}
	if err := r.store.Set(ctx, cacheKey(mediaID), owner.AccountID, r.ttl); err != nil {
		log.Printf("media owner cache write failed for media_id=%s: %v", mediaID, err)
	}

	return &Owner{AccountID: owner.AccountID, Username: owner.Username, Source: SourceAPI}, nil
}
