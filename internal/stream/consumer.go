// Package stream drains asynchronous batch comparison jobs from a Redis
// stream, fans the file pairs out to the worker pool and persists the
// outcome.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mverno/resemble/internal/cache"
	redisInfra "github.com/mverno/resemble/internal/infra/redis"
	"github.com/mverno/resemble/internal/models"
	"github.com/mverno/resemble/internal/repository"
	"github.com/mverno/resemble/internal/similarity"
)

type Consumer struct {
	client              *redisInfra.Client
	streamKey           string
	consumerGroup       string
	consumerName        string
	deadLetterKey       string
	comparisonsRepo     *repository.ComparisonsRepository
	workerPool          *similarity.WorkerPool
	retentionDuration   time.Duration
	pelRecoveryInterval time.Duration
	cleanupInterval     time.Duration
	lastPELCheck        time.Time
}

func NewConsumer(
	client *redisInfra.Client,
	streamKey string,
	consumerGroup string,
	consumerName string,
	deadLetterKey string,
	comparisonsRepo *repository.ComparisonsRepository,
	workerPool *similarity.WorkerPool,
	retentionDuration time.Duration,
) *Consumer {
	return &Consumer{
		client:              client,
		streamKey:           streamKey,
		consumerGroup:       consumerGroup,
		consumerName:        consumerName,
		deadLetterKey:       deadLetterKey,
		comparisonsRepo:     comparisonsRepo,
		workerPool:          workerPool,
		retentionDuration:   retentionDuration,
		pelRecoveryInterval: 30 * time.Second,
		cleanupInterval:     1 * time.Hour,
		lastPELCheck:        time.Now(),
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.createConsumerGroup(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create consumer group, may already exist")
	}

	// Recover PEL messages on startup (handle crash recovery)
	if err := c.recoverPEL(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover PEL messages on startup")
	}
	c.lastPELCheck = time.Now()

	go c.runCleanupPeriodically(ctx)
	log.Info().
		Dur("cleanup_interval", c.cleanupInterval).
		Dur("retention", c.retentionDuration).
		Msg("Started cleanup goroutine")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consume(ctx); err != nil {
				log.Error().Err(err).Msg("Error consuming messages")
				time.Sleep(1 * time.Second) // Brief pause before retrying
			}
		}
	}
}

func (c *Consumer) createConsumerGroup(ctx context.Context) error {
	// MKSTREAM will create the stream if it doesn't exist
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			log.Debug().
				Str("group", c.consumerGroup).
				Msg("Consumer group already exists")
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().
		Str("group", c.consumerGroup).
		Str("stream", c.streamKey).
		Msg("Created new consumer group (will only read new messages)")
	return nil
}

// recovers pending messages from the Pending Entry List
func (c *Consumer) recoverPEL(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return nil // No pending messages
		}
		return fmt.Errorf("failed to get pending messages: %w", err)
	}

	// Claim messages idle for more than a minute
	minIdleTime := 1 * time.Minute
	messageIDs := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= minIdleTime {
			messageIDs = append(messageIDs, p.ID)
		}
	}
	if len(messageIDs) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		MinIdle:  minIdleTime,
		Messages: messageIDs,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim messages: %w", err)
	}

	if len(claimed) > 0 {
		log.Info().
			Int("claimed", len(claimed)).
			Msg("Claimed PEL messages, processing")
	}
	for _, msg := range claimed {
		if err := c.processMessage(ctx, &msg); err != nil {
			log.Error().
				Err(err).
				Str("message_id", msg.ID).
				Msg("Failed to process claimed PEL message")
		}
	}

	return nil
}

func (c *Consumer) consume(ctx context.Context) error {
	if time.Since(c.lastPELCheck) > c.pelRecoveryInterval {
		if err := c.recoverPEL(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to recover PEL messages")
		}
		c.lastPELCheck = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    10,          // Read up to 10 messages at a time
		Block:    time.Second, // Block for 1 second if no messages
	}).Result()

	if err == redis.Nil {
		return nil // No messages available
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		if stream.Stream != c.streamKey {
			continue
		}
		for _, msg := range stream.Messages {
			if err := c.processMessage(ctx, &msg); err != nil {
				log.Error().
					Err(err).
					Str("message_id", msg.ID).
					Msg("Failed to process message")
			}
		}
	}

	return nil
}

// processMessage runs one batch job end to end
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	raw, ok := msg.Values["job"].(string)
	if !ok {
		log.Error().Str("message_id", msg.ID).Msg("Message has no job payload")
		c.deadLetter(ctx, msg)
		return c.acknowledge(ctx, msg.ID)
	}

	var job models.BatchJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to decode batch job")
		c.deadLetter(ctx, msg)
		return c.acknowledge(ctx, msg.ID)
	}

	if err := c.runBatch(ctx, &job); err != nil {
		log.Error().Err(err).Str("batchId", job.ID).Msg("Batch failed")
		c.deadLetter(ctx, msg)
		if statusErr := cache.UpdateBatchStatus(ctx, c.client, job.ID, models.StepFailed); statusErr != nil {
			log.Warn().Err(statusErr).Str("batchId", job.ID).Msg("Failed to record failed status")
		}
		return c.acknowledge(ctx, msg.ID)
	}

	return c.acknowledge(ctx, msg.ID)
}

// runBatch fans the batch's pairs out to the worker pool and persists
// every pair result plus the final report status.
func (c *Consumer) runBatch(ctx context.Context, job *models.BatchJob) error {
	if err := cache.UpdateBatchStatus(ctx, c.client, job.ID, models.StepRunning); err != nil {
		log.Warn().Err(err).Str("batchId", job.ID).Msg("Failed to record running status")
	}

	results := make(chan similarity.PairScore, len(job.Candidates))
	done := make(chan struct{}, len(job.Candidates))
	for _, candidate := range job.Candidates {
		compareJob := &similarity.CompareJob{
			LeftPath:   job.BasePath,
			RightPath:  candidate,
			Algorithm:  similarity.Algorithm(job.Algorithm),
			Binary:     job.Binary,
			ResultChan: results,
			DoneChan:   done,
		}
		if err := c.workerPool.Submit(compareJob); err != nil {
			return fmt.Errorf("failed to submit comparison: %w", err)
		}
	}

	failed := 0
	for i := 0; i < len(job.Candidates); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			result := &models.ComparisonResult{
				BatchID:   job.ID,
				LeftPath:  res.LeftPath,
				RightPath: res.RightPath,
				Algorithm: string(res.Algorithm),
				Binary:    job.Binary,
				Percent:   res.Percent,
			}
			if res.Err != nil {
				result.Error = res.Err.Error()
				failed++
			}
			if err := c.comparisonsRepo.InsertResult(ctx, result); err != nil {
				return err
			}
		}
	}

	status := string(models.StepCompleted)
	if failed == len(job.Candidates) {
		status = string(models.StepFailed)
	}
	if err := c.comparisonsRepo.UpdateReportStatus(ctx, job.ID, status, failed); err != nil {
		return err
	}
	if err := cache.UpdateBatchStatus(ctx, c.client, job.ID, models.Step(status)); err != nil {
		log.Warn().Err(err).Str("batchId", job.ID).Msg("Failed to record final status")
	}

	log.Info().
		Str("batchId", job.ID).
		Int("pairs", len(job.Candidates)).
		Int("failed", failed).
		Msg("Batch completed")
	return nil
}

// deadLetter pushes an unprocessable message to the dead-letter list
func (c *Consumer) deadLetter(ctx context.Context, msg *redis.XMessage) {
	payload, err := json.Marshal(msg.Values)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", msg.Values))
	}
	if err := c.client.RPush(ctx, c.deadLetterKey, payload).Err(); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to push message to dead-letter list")
	}
}

// removes messages older than retention duration
func (c *Consumer) cleanupOldMessages(ctx context.Context) error {
	cutoffTime := time.Now().Add(-c.retentionDuration)
	minID := fmt.Sprintf("%d-0", cutoffTime.UnixMilli())

	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Dur("retention", c.retentionDuration).
			Msg("Cleaned up old messages from stream")
	}

	return nil
}

// runs cleanup on the configured interval
func (c *Consumer) runCleanupPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	if err := c.cleanupOldMessages(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to run initial cleanup")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cleanup goroutine shutting down")
			return
		case <-ticker.C:
			if err := c.cleanupOldMessages(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old messages")
			}
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err()
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return err
	}

	log.Debug().
		Str("message_id", messageID).
		Msg("Message acknowledged")

	return nil
}
