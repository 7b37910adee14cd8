package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yatra/models"

	"github.com/redis/go-redis/v9"
)

const (
	templesKey    = "temples:all"
	generationKey = "temples:gen"
)

// NewClient connects to redis with short timeouts so a slow cache never
// holds up a request for long.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// TempleCache holds the full temple listing under one key.
type TempleCache struct {
	conn *redis.Client
	ttl  time.Duration
}

func NewTempleCache(conn *redis.Client, ttl time.Duration) *TempleCache {
	return &TempleCache{conn: conn, ttl: ttl}
}

// Get returns the cached listing. ok is false on a miss.
func (c *TempleCache) Get(ctx context.Context) (temples []models.Temple, ok bool, err error) {
	raw, err := c.conn.Get(ctx, templesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", templesKey, err)
	}
	if err := json.Unmarshal(raw, &temples); err != nil {
		return nil, false, fmt.Errorf("decode cached temples: %w", err)
	}
	return temples, true, nil
}

// Generation is bumped by every Invalidate. Readers take it before loading
// the listing from the store and hand it back to SetIfUnchanged.
func (c *TempleCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.conn.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", generationKey, err)
	}
	return gen, nil
}

// SetIfUnchanged caches temples only while the generation still equals gen,
// so a listing loaded before an invalidation is never written back.
func (c *TempleCache) SetIfUnchanged(ctx context.Context, gen int64, temples []models.Temple) (bool, error) {
	raw, err := json.Marshal(temples)
	if err != nil {
		return false, fmt.Errorf("encode temples: %w", err)
	}

	stored := false
	err = c.conn.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, templesKey, raw, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, generationKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		// invalidated between the check and the write
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis set %s: %w", templesKey, err)
	}
	return stored, nil
}

// Invalidate drops the cached listing and bumps the generation; the next
// read goes to the store.
func (c *TempleCache) Invalidate(ctx context.Context) error {
	_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, templesKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %s: %w", templesKey, err)
	}
	return nil
}

// Healthy verifies redis connectivity.
func (c *TempleCache) Healthy(ctx context.Context) bool {
	return c.conn.Ping(ctx).Err() == nil
}

func (c *TempleCache) Close() error {
	return c.conn.Close()
}
