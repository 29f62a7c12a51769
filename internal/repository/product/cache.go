package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

type cachedRepo struct {
	Repository
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCached serves GetByID from redis and drops entries on every write that
// touches a product. Cache failures fall back to next.
func NewCached(next Repository, client *redis.Client, ttl time.Duration, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &cachedRepo{Repository: next, client: client, ttl: ttl, logger: logger}
}

func (c *cachedRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.logger.Printf("product cache: corrupt entry id=%d", id)
	case !errors.Is(err, redis.Nil):
		c.logger.Printf("product cache: get id=%d error=%v", id, err)
	}

	p, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, cacheKey(id), data, c.ttl).Err(); err != nil {
			c.logger.Printf("product cache: set id=%d error=%v", id, err)
		}
	}
	return p, nil
}

func (c *cachedRepo) Update(ctx context.Context, id int64, in Update) (*domain.Product, error) {
	p, err := c.Repository.Update(ctx, id, in)
	c.invalidate(ctx, id)
	return p, err
}

func (c *cachedRepo) Deactivate(ctx context.Context, id int64) error {
	err := c.Repository.Deactivate(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *cachedRepo) SetStock(ctx context.Context, id int64, quantity int) error {
	err := c.Repository.SetStock(ctx, id, quantity)
	c.invalidate(ctx, id)
	return err
}

func (c *cachedRepo) UpsertBySKU(ctx context.Context, p domain.Product, stock int) (*domain.Product, error) {
	out, err := c.Repository.UpsertBySKU(ctx, p, stock)
	if out != nil {
		c.invalidate(ctx, out.ID)
	}
	return out, err
}

func (c *cachedRepo) invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Printf("product cache: delete id=%d error=%v", id, err)
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
