package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/go-redis/redis/v8"
)

// QuoteCache stores recent quotes. Get returns nil, nil on a miss.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*models.Quote, error)
	Set(ctx context.Context, q models.Quote) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*models.Quote, error) { return nil, nil }
func (noopCache) Set(context.Context, models.Quote) error            { return nil }

// RedisQuoteCache keeps quotes in Redis with a fixed TTL
type RedisQuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisQuoteCache(client *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{
		client: client,
		ttl:    ttl,
	}
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("market:quote:%s", symbol)
}

func (c *RedisQuoteCache) Get(ctx context.Context, symbol string) (*models.Quote, error) {
	data, err := c.client.Get(ctx, quoteKey(symbol)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q models.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *RedisQuoteCache) Set(ctx context.Context, q models.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quoteKey(q.Symbol), data, c.ttl).Err()
}
