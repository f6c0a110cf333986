package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mverno/resemble/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	comparisonsCollection = "comparisons"
	reportsCollection     = "batch_reports"
)

type ComparisonsRepository struct {
	mongoRepo *MongoRepository
}

func NewComparisonsRepository(mongoRepo *MongoRepository) *ComparisonsRepository {
	return &ComparisonsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ComparisonsRepository) InsertResult(ctx context.Context, result *models.ComparisonResult) error {
	result.CreatedAt = time.Now()

	if err := r.mongoRepo.InsertOne(ctx, comparisonsCollection, result); err != nil {
		return fmt.Errorf("failed to insert comparison result: %w", err)
	}
	return nil
}

func (r *ComparisonsRepository) InsertReport(ctx context.Context, report *models.BatchReport) error {
	report.CreatedAt = time.Now()

	if err := r.mongoRepo.InsertOne(ctx, reportsCollection, report); err != nil {
		return fmt.Errorf("failed to insert batch report: %w", err)
	}
	return nil
}

func (r *ComparisonsRepository) UpdateReportStatus(ctx context.Context, batchID, status string, failedPairs int) error {
	update := bson.M{"$set": bson.M{
		"status":      status,
		"failedPairs": failedPairs,
		"completedAt": time.Now(),
	}}
	if err := r.mongoRepo.UpdateOne(ctx, reportsCollection, bson.M{"batchId": batchID}, update); err != nil {
		return fmt.Errorf("failed to update batch report %s: %w", batchID, err)
	}
	return nil
}

func (r *ComparisonsRepository) GetReportByBatchID(ctx context.Context, batchID string) (*models.BatchReport, error) {
	var report models.BatchReport
	err := r.mongoRepo.FindOne(ctx, reportsCollection, bson.M{"batchId": batchID}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch report %s: %w", batchID, err)
	}
	return &report, nil
}

func (r *ComparisonsRepository) GetResultsByBatchID(ctx context.Context, batchID string) ([]models.ComparisonResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rightPath", Value: 1}})
	cursor, err := r.mongoRepo.FindMany(ctx, comparisonsCollection, bson.M{"batchId": batchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for batch %s: %w", batchID, err)
	}
	defer cursor.Close(ctx)

	var results []models.ComparisonResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results for batch %s: %w", batchID, err)
	}
	return results, nil
}
