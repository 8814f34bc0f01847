package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jsphweid/chordpad/model"
	gocache "github.com/patrickmn/go-cache"
)

// CachedStore is a read-through cache in front of a slower repository. Entries
// are stored encoded so callers never share slices with the cache.
type CachedStore struct {
	next  Repository
	cache *gocache.Cache
}

func NewCachedStore(next Repository, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedStore) put(d model.Draft) {
	data, err := json.Marshal(d)
	if err != nil {
		c.cache.Delete(d.ID)
		return
	}
	c.cache.SetDefault(d.ID, data)
}

func (c *CachedStore) Save(ctx context.Context, d model.Draft) error {
	if err := c.next.Save(ctx, d); err != nil {
		c.cache.Delete(d.ID)
		return err
	}
	c.put(d)
	return nil
}

func (c *CachedStore) Get(ctx context.Context, id string) (model.Draft, error) {
	if val, found := c.cache.Get(id); found {
		var d model.Draft
		if err := json.Unmarshal(val.([]byte), &d); err == nil {
			return d, nil
		}
		c.cache.Delete(id)
	}

	d, err := c.next.Get(ctx, id)
	if err != nil {
		return d, err
	}
	c.put(d)
	return d, nil
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	c.cache.Delete(id)
	return c.next.Delete(ctx, id)
}

// List always goes to the underlying repository.
func (c *CachedStore) List(ctx context.Context) ([]model.DraftSummary, error) {
	return c.next.List(ctx)
}
