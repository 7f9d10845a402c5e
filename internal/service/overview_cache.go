package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
)

const overviewGenerationKey = "overview:generation"

// OverviewCache keeps per-student assignment overviews in Redis. A nil cache or
// client turns every call into a no-op.
type OverviewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewOverviewCache builds the cache. A nil client disables caching.
func NewOverviewCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *OverviewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OverviewCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "overview_cache").Logger(),
	}
}

func (c *OverviewCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *OverviewCache) key(ctx context.Context, studentID uint) (string, error) {
	generation, err := c.client.Get(ctx, overviewGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("overview:v%d:student:%d", generation, studentID), nil
}

// Get returns the cached overview of a student.
func (c *OverviewCache) Get(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, bool) {
	if !c.enabled() {
		return nil, false
	}

	key, err := c.key(ctx, studentID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read overview generation")
		return nil, false
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to read overview cache")
		}
		return nil, false
	}

	var items []dto.StudentAssignmentResponse
	if err := json.Unmarshal(cached, &items); err != nil {
		return nil, false
	}

	c.logger.Debug().Uint("student_id", studentID).Msg("overview cache hit")
	return items, true
}

// Set stores the overview of a student.
func (c *OverviewCache) Set(ctx context.Context, studentID uint, items []dto.StudentAssignmentResponse) {
	if !c.enabled() {
		return
	}

	key, err := c.key(ctx, studentID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read overview generation")
		return
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to store overview cache")
	}
}

// InvalidateStudent drops the cached overview of one student.
func (c *OverviewCache) InvalidateStudent(ctx context.Context, studentID uint) {
	if !c.enabled() {
		return
	}

	key, err := c.key(ctx, studentID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read overview generation")
		return
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate overview cache")
	}
}

// InvalidateAll bumps the generation so every cached overview becomes unreachable.
func (c *OverviewCache) InvalidateAll(ctx context.Context) {
	if !c.enabled() {
		return
	}

	if err := c.client.Incr(ctx, overviewGenerationKey).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to bump overview generation")
	}
}
