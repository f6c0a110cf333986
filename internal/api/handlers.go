package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mverno/resemble/internal/cache"
	"github.com/mverno/resemble/internal/config"
	"github.com/mverno/resemble/internal/infra/redis"
	"github.com/mverno/resemble/internal/metrics"
	"github.com/mverno/resemble/internal/models"
	"github.com/mverno/resemble/internal/repository"
	"github.com/mverno/resemble/internal/similarity"
)

// Handler holds dependencies for handlers
type Handler struct {
	cfg             *config.Config
	comparisonsRepo *repository.ComparisonsRepository
	redisClient     *redis.Client
	scoreCache      *cache.ScoreCache
	compareSem      chan struct{} // Semaphore for bounded concurrency
	compareTimeout  time.Duration
}

// NewHandler creates a new handler
func NewHandler(
	cfg *config.Config,
	comparisonsRepo *repository.ComparisonsRepository,
	redisClient *redis.Client,
	scoreCache *cache.ScoreCache,
) *Handler {
	// Create semaphore for bounded concurrency
	sem := make(chan struct{}, cfg.MaxConcurrentCompare)

	return &Handler{
		cfg:             cfg,
		comparisonsRepo: comparisonsRepo,
		redisClient:     redisClient,
		scoreCache:      scoreCache,
		compareSem:      sem,
		compareTimeout:  cfg.CompareTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Compare scores one file pair synchronously
func (h *Handler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	algorithm := similarity.Algorithm(req.Algorithm)
	if req.Algorithm == "" {
		algorithm = similarity.AlgorithmTrigram
	}
	if !algorithm.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("Unknown algorithm %q", req.Algorithm),
			Code:  "INVALID_ALGORITHM",
		})
		return
	}

	if req.LeftContent == "" && req.LeftPath == "" || req.RightContent == "" && req.RightPath == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Both sides need a path or inline content",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	left, err := resolveContent(req.LeftContent, req.LeftPath)
	if err != nil {
		h.respondInputError(c, err)
		return
	}
	right, err := resolveContent(req.RightContent, req.RightPath)
	if err != nil {
		h.respondInputError(c, err)
		return
	}
	h.compare(c, algorithm, req.Binary, left, right)
}

func (h *Handler) respondInputError(c *gin.Context, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "FILE_NOT_FOUND",
		})
		return
	}
	log.Error().Err(err).Msg("Failed to resolve comparison input")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Failed to read comparison input",
		Code:  "INTERNAL_ERROR",
	})
}

func (h *Handler) compare(c *gin.Context, algorithm similarity.Algorithm, binary bool, left, right []byte) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.compareTimeout)
	defer cancel()

	key := cache.Key(left, right, string(algorithm), binary)
	if percent, ok := h.scoreCache.Get(ctx, key); ok {
		c.JSON(http.StatusOK, models.CompareResponse{
			Algorithm: string(algorithm),
			Percent:   percent,
			Cached:    true,
		})
		return
	}

	// Acquire semaphore (bounded concurrency)
	select {
	case h.compareSem <- struct{}{}:
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_CANCELLED",
		})
		return
	}
	defer func() { <-h.compareSem }()

	start := time.Now()
	var percent, rawScore float64
	var err error
	switch algorithm {
	case similarity.AlgorithmSpans:
		var score similarity.Score
		score, err = similarity.EstimateReaders(bytes.NewReader(left), bytes.NewReader(right), binary)
		rawScore = float64(score)
		percent = score.Percent()
	default:
		percent, err = similarity.TrigramReaders(bytes.NewReader(left), bytes.NewReader(right))
	}
	metrics.ComparisonDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ComparisonCount.WithLabelValues(string(algorithm), "error").Inc()
		log.Error().Err(err).Str("algorithm", string(algorithm)).Msg("Comparison failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Comparison failed",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	metrics.ComparisonCount.WithLabelValues(string(algorithm), "ok").Inc()

	percent = math.Round(percent*100) / 100
	h.scoreCache.Set(ctx, key, percent)

	c.JSON(http.StatusOK, models.CompareResponse{
		Algorithm: string(algorithm),
		Percent:   percent,
		RawScore:  rawScore,
		Cached:    false,
	})
}

// CreateBatch enqueues an asynchronous batch comparison
func (h *Handler) CreateBatch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if req.BasePath == "" || len(req.Candidates) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "basePath and candidates are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	algorithm := similarity.Algorithm(req.Algorithm)
	if req.Algorithm == "" {
		algorithm = similarity.AlgorithmTrigram
	}
	if !algorithm.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("Unknown algorithm %q", req.Algorithm),
			Code:  "INVALID_ALGORITHM",
		})
		return
	}

	ctx := c.Request.Context()
	job := models.BatchJob{
		ID:         uuid.New().String(),
		BasePath:   req.BasePath,
		Candidates: req.Candidates,
		Algorithm:  string(algorithm),
		Binary:     req.Binary,
	}

	report := &models.BatchReport{
		BatchID:    job.ID,
		Status:     string(models.StepQueued),
		Algorithm:  job.Algorithm,
		TotalPairs: len(job.Candidates),
	}
	if err := h.comparisonsRepo.InsertReport(ctx, report); err != nil {
		log.Error().Err(err).Str("batchId", job.ID).Msg("Failed to persist batch report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to create batch",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("batchId", job.ID).Msg("Failed to encode batch job")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to create batch",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	err = h.redisClient.XAdd(ctx, &goredis.XAddArgs{
		Stream: h.cfg.RedisStreamKey,
		Values: map[string]interface{}{"job": string(payload)},
	}).Err()
	if err != nil {
		log.Error().Err(err).Str("batchId", job.ID).Msg("Failed to enqueue batch job")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to enqueue batch",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	if err := cache.UpdateBatchStatus(ctx, h.redisClient, job.ID, models.StepQueued); err != nil {
		log.Warn().Err(err).Str("batchId", job.ID).Msg("Failed to record queued status")
	}

	c.JSON(http.StatusAccepted, gin.H{"batchId": job.ID})
}

// GetBatch reports batch status and any persisted results
func (h *Handler) GetBatch(c *gin.Context) {
	batchID := c.Param("id")
	ctx := c.Request.Context()

	report, err := h.comparisonsRepo.GetReportByBatchID(ctx, batchID)
	if err != nil {
		log.Error().Err(err).Str("batchId", batchID).Msg("Failed to load batch report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load batch",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Batch not found",
			Code:  "BATCH_NOT_FOUND",
		})
		return
	}

	status := report.Status
	if step, err := cache.GetBatchStatus(ctx, h.redisClient, batchID); err == nil && step != "" {
		status = string(step)
	}

	results, err := h.comparisonsRepo.GetResultsByBatchID(ctx, batchID)
	if err != nil {
		log.Error().Err(err).Str("batchId", batchID).Msg("Failed to load batch results")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load batch results",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batchId": batchID,
		"status":  status,
		"report":  report,
		"results": results,
	})
}

// resolveContent prefers inline content and falls back to reading a
// daemon-local path.
func resolveContent(content, path string) ([]byte, error) {
	if content != "" {
		return []byte(content), nil
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}
