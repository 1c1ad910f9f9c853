package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"valhalla-backend/internal/cache"
	"valhalla-backend/internal/models"
)

// Expired entries stay usable as a stale fallback for this long before the
// cache drops them.
const staleRetention = 30 * time.Minute

// projectSource is what the cached decorator needs from the underlying
// store.
type projectSource interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	UpdateStatus(ctx context.Context, id, newStatus string, updates map[string]string) (*models.Project, error)
}

// CachedProjectRepo serves project reads from an in-process TTL cache.
// Projects change rarely and are read on every chat turn, so a short cache
// removes one store round trip per turn. When the store is unreachable an
// expired entry is served instead of failing the request.
type CachedProjectRepo struct {
	source projectSource
	cache  *cache.TTL
}

func NewCachedProjectRepo(source projectSource, ttl time.Duration) *CachedProjectRepo {
	return &CachedProjectRepo{
		source: source,
		cache:  cache.New(ttl, staleRetention),
	}
}

func (c *CachedProjectRepo) Get(ctx context.Context, id string) (*models.Project, error) {
	if v, ok := c.cache.Get(id); ok {
		return v.(*models.Project), nil
	}

	p, err := c.source.Get(ctx, id)
	if err != nil {
		var unavailable *StoreUnavailableError
		if errors.As(err, &unavailable) {
			if v, present, _ := c.cache.GetStale(id); present {
				log.Printf("serving project %s from stale cache: %v", id, err)
				return v.(*models.Project), nil
			}
		}
		return nil, err
	}

	c.cache.Set(id, p)
	return p, nil
}

// List always goes to the store; the fresh results repopulate the per-entry
// cache on the way out.
func (c *CachedProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	projects, err := c.source.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		c.cache.Set(p.ID, p)
	}
	return projects, nil
}

// UpdateStatus writes through and replaces the cached entry so readers never
// see the old status for a full TTL.
func (c *CachedProjectRepo) UpdateStatus(ctx context.Context, id, newStatus string, updates map[string]string) (*models.Project, error) {
	p, err := c.source.UpdateStatus(ctx, id, newStatus, updates)
	if err != nil {
		return nil, err
	}
	c.cache.Set(id, p)
	return p, nil
}

// Invalidate drops one entry, stale copy included.
func (c *CachedProjectRepo) Invalidate(id string) {
	c.cache.Delete(id)
}

func (c *CachedProjectRepo) Close() {
	c.cache.Close()
}
