package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda resultados liquidados no Redis; resultados são terminais,
// então o TTL só limita o tamanho do working set
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keyResult(gameID uint64) string { return "game:result:" + strconv.FormatUint(gameID, 10) }

func (c *Cache) GetResult(ctx context.Context, gameID uint64, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyResult(gameID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetResult(ctx context.Context, gameID uint64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyResult(gameID), b, c.TTL).Err()
}
