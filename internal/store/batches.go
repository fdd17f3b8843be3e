package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

// Batch status values.
const (
	BatchStatusProcessing = "PROCESSING"
	BatchStatusCompleted  = "COMPLETED"
	BatchStatusCancelled  = "CANCELLED"
	BatchStatusFailed     = "FAILED"
)

// CreateBatch registers an uploaded name list before screening starts.
func (s *Store) CreateBatch(ctx context.Context, id, filename string, total int) (*models.ScreeningBatch, error) {
	batch := models.ScreeningBatch{
		ID:           id,
		Filename:     filename,
		UploadedAt:   time.Now().UTC(),
		TotalRecords: total,
		Status:       BatchStatusProcessing,
	}
	if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("failed to create screening batch: %w", err)
	}
	return &batch, nil
}

// SaveBatchResults persists the per-input results and their category-reduced
// matches, then marks the batch with its final status and flagged count.
func (s *Store) SaveBatchResults(ctx context.Context, batchID string, status string, results []models.ScreeningResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flagged := 0
		for i := range results {
			results[i].BatchID = batchID
			if results[i].MatchStatus != models.MatchStatusNoMatch {
				flagged++
			}
			if err := tx.Create(&results[i]).Error; err != nil {
				return fmt.Errorf("failed to save screening result: %w", err)
			}
		}
		if err := tx.Model(&models.ScreeningBatch{}).
			Where("id = ?", batchID).
			Updates(map[string]interface{}{
				"status":        status,
				"flagged_count": flagged,
			}).Error; err != nil {
			return fmt.Errorf("failed to finalize batch %s: %w", batchID, err)
		}
		return nil
	})
}

// MarkBatchFailed records a terminal failure for the batch.
func (s *Store) MarkBatchFailed(ctx context.Context, batchID string) error {
	return s.db.WithContext(ctx).Model(&models.ScreeningBatch{}).
		Where("id = ?", batchID).
		Update("status", BatchStatusFailed).Error
}

// GetBatch loads a batch with its results and matches.
func (s *Store) GetBatch(ctx context.Context, batchID string) (*models.ScreeningBatch, []models.ScreeningResult, error) {
	var batch models.ScreeningBatch
	err := s.db.WithContext(ctx).First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}

	var results []models.ScreeningResult
	if err := s.db.WithContext(ctx).
		Preload("Matches").
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load batch results: %w", err)
	}
	return &batch, results, nil
}
