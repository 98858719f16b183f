package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/orochi-partners/models"
	"github.com/redis/go-redis/v9"
)

// CacheStore is the subset of the redis client the program cache uses
type CacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProgramCache caches program reads keyed by program id
type ProgramCache interface {
	// Get returns nil without error on a miss
	Get(ctx context.Context, programID string) (*models.Program, error)
	Set(ctx context.Context, program *models.Program) error
	Invalidate(ctx context.Context, programID string) error
}

type RedisProgramCache struct {
	store  CacheStore
	prefix string
	ttl    time.Duration
}

func NewProgramCache(store CacheStore, prefix string, ttl time.Duration) ProgramCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProgramCache{store: store, prefix: prefix, ttl: ttl}
}

// programRedisKey returns the redis key of a cached program
func programRedisKey(prefix, programID string) string {
	return prefix + "program:" + programID
}

func (c *RedisProgramCache) Get(ctx context.Context, programID string) (*models.Program, error) {
	raw, err := c.store.Get(ctx, programRedisKey(c.prefix, programID)).Bytes()
	if errors.Is(err, redis.Nil) {
		programCacheLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		programCacheLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read program cache: %w", err)
	}

	var program models.Program
	if err := json.Unmarshal(raw, &program); err != nil {
		programCacheLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to decode cached program: %w", err)
	}
	programCacheLookups.WithLabelValues("hit").Inc()
	return &program, nil
}

func (c *RedisProgramCache) Set(ctx context.Context, program *models.Program) error {
	raw, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("failed to encode program: %w", err)
	}
	return c.store.Set(ctx, programRedisKey(c.prefix, program.ID), raw, c.ttl).Err()
}

func (c *RedisProgramCache) Invalidate(ctx context.Context, programID string) error {
	return c.store.Del(ctx, programRedisKey(c.prefix, programID)).Err()
}

// NoopProgramCache is used when caching is disabled
type NoopProgramCache struct{}

func (NoopProgramCache) Get(context.Context, string) (*models.Program, error) { return nil, nil }
func (NoopProgramCache) Set(context.Context, *models.Program) error           { return nil }
func (NoopProgramCache) Invalidate(context.Context, string) error             { return nil }
