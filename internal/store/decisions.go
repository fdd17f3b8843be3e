package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

// RecordDecision revokes any active decision for the normalized term and
// inserts the new verdict, with an audit row for each step, in one
// transaction. This upholds the at-most-one-active-decision invariant even
// under concurrent writers: the revoke and the insert commit together or
// not at all. Decisions are never deleted.
func (s *Store) RecordDecision(ctx context.Context, termNormalized, sanctionID string, verdict models.MatchStatus, userID, comment string) (uint, error) {
	if termNormalized == "" {
		return 0, errors.New("empty search term")
	}
	if verdict != models.MatchStatusTrueMatch && verdict != models.MatchStatusFalsePositive {
		return 0, fmt.Errorf("invalid verdict %q", verdict)
	}

	now := time.Now().UTC()
	var decisionID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous []models.MatchDecision
		if err := tx.Where("search_term_normalized = ? AND revoked = ?", termNormalized, false).
			Find(&previous).Error; err != nil {
			return fmt.Errorf("failed to load active decisions: %w", err)
		}

		for _, prev := range previous {
			if err := tx.Model(&models.MatchDecision{}).
				Where("id = ?", prev.ID).
				Update("revoked", true).Error; err != nil {
				return fmt.Errorf("failed to revoke decision %d: %w", prev.ID, err)
			}
			audit := models.DecisionAudit{
				DecisionID: prev.ID,
				Action:     "revoke",
				OldValue:   string(prev.Decision),
				UserID:     userID,
				Timestamp:  now,
				Comment:    "Auto-revoked by new decision",
			}
			if err := tx.Create(&audit).Error; err != nil {
				return fmt.Errorf("failed to write revoke audit: %w", err)
			}
		}

		decision := models.MatchDecision{
			SearchTermNormalized: termNormalized,
			SanctionID:           sanctionID,
			Decision:             verdict,
			Comment:              comment,
			CreatedAt:            now,
			UserID:               userID,
		}
		if err := tx.Create(&decision).Error; err != nil {
			return fmt.Errorf("failed to create decision: %w", err)
		}
		audit := models.DecisionAudit{
			DecisionID: decision.ID,
			Action:     "create",
			NewValue:   string(verdict),
			UserID:     userID,
			Timestamp:  now,
			Comment:    comment,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write create audit: %w", err)
		}

		decisionID = decision.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return decisionID, nil
}

// ActiveDecision is a point read of the single non-revoked decision for a
// normalized term, if any.
func (s *Store) ActiveDecision(ctx context.Context, termNormalized string) (*models.MatchDecision, error) {
	var decision models.MatchDecision
	err := s.db.WithContext(ctx).
		Where("search_term_normalized = ? AND revoked = ?", termNormalized, false).
		Order("created_at DESC").
		First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load decision: %w", err)
	}
	return &decision, nil
}

// DecisionHistory returns every decision ever recorded for a term, newest
// first, revoked rows included.
func (s *Store) DecisionHistory(ctx context.Context, termNormalized string) ([]models.MatchDecision, error) {
	var decisions []models.MatchDecision
	if err := s.db.WithContext(ctx).
		Where("search_term_normalized = ?", termNormalized).
		Order("created_at DESC").
		Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("failed to load decision history: %w", err)
	}
	return decisions, nil
}

// DecisionAuditTrail returns the audit entries for one decision in order.
func (s *Store) DecisionAuditTrail(ctx context.Context, decisionID uint) ([]models.DecisionAudit, error) {
	var entries []models.DecisionAudit
	if err := s.db.WithContext(ctx).
		Where("decision_id = ?", decisionID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load decision audit: %w", err)
	}
	return entries, nil
}
