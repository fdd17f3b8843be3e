package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

// ErrRecordNotFound is returned for point reads that match nothing.
var ErrRecordNotFound = errors.New("record not found")

// Store is the persistence gateway between the screening engine and the
// record store maintained by the ingestion pipeline.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a Store on an open gorm connection.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// AutoMigrate creates or updates the screening tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.SanctionRecord{},
		&models.MatchDecision{},
		&models.DecisionAudit{},
		&models.SearchLog{},
		&models.ScreeningBatch{},
		&models.ScreeningResult{},
		&models.ScreeningMatch{},
		&models.ImportLog{},
	)
}

// LoadActiveRecords returns every currently active sanction record. Called
// at startup and after each successful import.
func (s *Store) LoadActiveRecords(ctx context.Context) ([]models.SanctionRecord, error) {
	var records []models.SanctionRecord
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load active sanctions: %w", err)
	}
	return records, nil
}

// LoadDecisions returns the full decision set, revoked rows included so the
// audit surface stays complete. The engine filters to active ones itself.
func (s *Store) LoadDecisions(ctx context.Context) ([]models.MatchDecision, error) {
	var decisions []models.MatchDecision
	if err := s.db.WithContext(ctx).Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	return decisions, nil
}

// GetRecord fetches one sanction record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.SanctionRecord, error) {
	var rec models.SanctionRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	return &rec, nil
}

// LogSearch appends one search-log row; failures are logged and swallowed
// so reporting never breaks a screening call.
func (s *Store) LogSearch(ctx context.Context, log models.SearchLog) {
	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		s.logger.Warn("failed to persist search log",
			zap.String("search_term", log.SearchTerm),
			zap.Error(err))
	}
}

// RecentSearchLogs returns the newest search logs, capped at limit.
func (s *Store) RecentSearchLogs(ctx context.Context, limit int) ([]models.SearchLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []models.SearchLog
	if err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to load search logs: %w", err)
	}
	return logs, nil
}
