// Package cache stores computed pair scores and batch status in Redis.
// Cache failures are logged and degrade to misses; they never fail a
// comparison.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mverno/resemble/internal/infra/redis"
	"github.com/mverno/resemble/internal/metrics"
	"github.com/mverno/resemble/internal/models"
)

type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScoreCache(client *redis.Client, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, ttl: ttl}
}

// Key derives the cache key for one comparison from the content of both
// sides, the algorithm and the binary flag, so renames and repeated
// requests hit the same entry.
func Key(leftContent, rightContent []byte, algorithm string, binary bool) string {
	return fmt.Sprintf("resemble:score:%x:%x:%s:%t",
		xxhash.Sum64(leftContent), xxhash.Sum64(rightContent), algorithm, binary)
}

// Get looks a score up. The second return is false on miss or error.
func (c *ScoreCache) Get(ctx context.Context, key string) (float64, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return 0, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Score cache lookup failed")
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return 0, false
	}
	percent, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Malformed cached score")
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return 0, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return percent, true
}

// Set stores a score with the configured TTL
func (c *ScoreCache) Set(ctx context.Context, key string, percent float64) {
	val := strconv.FormatFloat(percent, 'f', -1, 64)
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to store score in cache")
	}
}

// UpdateBatchStatus records the lifecycle step of a batch in Redis
func UpdateBatchStatus(ctx context.Context, client *redis.Client, batchID string, step models.Step) error {
	validSteps := map[models.Step]bool{
		models.StepQueued:    true,
		models.StepRunning:   true,
		models.StepCompleted: true,
		models.StepFailed:    true,
	}
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := "resemble:batch_status:" + batchID

	err := client.Set(ctx, rkey, string(step), 12*time.Hour).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("batchID", batchID).
			Str("redisKey", rkey).
			Msg("Failed to update batch status in Redis")
		return fmt.Errorf("failed to update batch status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("batchID", batchID).
		Msg("Batch status updated in Redis")

	return nil
}

// GetBatchStatus returns the recorded step for a batch, or "" when the
// status key has expired or was never written.
func GetBatchStatus(ctx context.Context, client *redis.Client, batchID string) (models.Step, error) {
	val, err := client.Get(ctx, "resemble:batch_status:"+batchID).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read batch status: %w", err)
	}
	return models.Step(val), nil
}
