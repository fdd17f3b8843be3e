package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	s := New(db, zap.NewNop())
	require.NoError(t, s.AutoMigrate())
	return s
}

func seedRecords(t *testing.T, s *Store) {
	t.Helper()
	records := []models.SanctionRecord{
		{ID: "EU-1", ListType: "EU", OriginalName: "Vladimir Putin", NormalizedName: "vladimir putin", EntityType: models.EntityTypeIndividual, IsActive: true},
		{ID: "EU-2", ListType: "EU", OriginalName: "Delisted Person", NormalizedName: "delisted person", EntityType: models.EntityTypeIndividual, IsActive: false},
		{ID: "US-1", ListType: "US_SDN", OriginalName: "Sberbank", NormalizedName: "sberbank", EntityType: models.EntityTypeCompany, IsActive: true},
	}
	require.NoError(t, s.db.Create(&records).Error)
}

func TestLoadActiveRecords(t *testing.T) {
	s := newTestStore(t)
	seedRecords(t, s)

	records, err := s.LoadActiveRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.IsActive)
		assert.NotEqual(t, "EU-2", r.ID)
	}
}

func TestGetRecord(t *testing.T) {
	s := newTestStore(t)
	seedRecords(t, s)

	rec, err := s.GetRecord(context.Background(), "EU-1")
	require.NoError(t, err)
	assert.Equal(t, "Vladimir Putin", rec.OriginalName)

	_, err = s.GetRecord(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordDecisionSupersedes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	firstID, err := s.RecordDecision(ctx, "vladimir putin", "EU-1", models.MatchStatusTrueMatch, "analyst-1", "confirmed against passport data")
	require.NoError(t, err)
	require.NotZero(t, firstID)

	secondID, err := s.RecordDecision(ctx, "vladimir putin", "", models.MatchStatusFalsePositive, "analyst-2", "different birth date")
	require.NoError(t, err)
	require.NotEqual(t, firstID, secondID)

	// only the second decision is active
	active, err := s.ActiveDecision(ctx, "vladimir putin")
	require.NoError(t, err)
	assert.Equal(t, secondID, active.ID)
	assert.Equal(t, models.MatchStatusFalsePositive, active.Decision)
	assert.False(t, active.Revoked)

	// the first is retained, revoked
	history, err := s.DecisionHistory(ctx, "vladimir putin")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, d := range history {
		if d.ID == firstID {
			assert.True(t, d.Revoked)
		}
	}

	// audit trail: create for the first, then revoke by the second
	trail, err := s.DecisionAuditTrail(ctx, firstID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "create", trail[0].Action)
	assert.Equal(t, string(models.MatchStatusTrueMatch), trail[0].NewValue)
	assert.Equal(t, "revoke", trail[1].Action)
	assert.Equal(t, string(models.MatchStatusTrueMatch), trail[1].OldValue)

	trail, err = s.DecisionAuditTrail(ctx, secondID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "create", trail[0].Action)
}

func TestRecordDecisionValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordDecision(ctx, "", "EU-1", models.MatchStatusTrueMatch, "analyst-1", "")
	assert.Error(t, err)

	_, err = s.RecordDecision(ctx, "someone", "EU-1", models.MatchStatusPending, "analyst-1", "")
	assert.Error(t, err)

	_, err = s.RecordDecision(ctx, "someone", "EU-1", models.MatchStatusNoMatch, "analyst-1", "")
	assert.Error(t, err)
}

func TestActiveDecisionNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ActiveDecision(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLoadDecisionsIncludesRevoked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordDecision(ctx, "term", "", models.MatchStatusFalsePositive, "u", "")
	require.NoError(t, err)
	_, err = s.RecordDecision(ctx, "term", "", models.MatchStatusTrueMatch, "u", "")
	require.NoError(t, err)

	decisions, err := s.LoadDecisions(ctx)
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
}

func TestSearchLogRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, term := range []string{"first", "second", "third"} {
		s.LogSearch(ctx, models.SearchLog{
			Timestamp:   time.Now().UTC().Add(time.Duration(i) * time.Second),
			SearchTerm:  term,
			SearchType:  "INDIVIDUAL",
			ResultCount: i,
		})
	}

	logs, err := s.RecentSearchLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "third", logs[0].SearchTerm)
	assert.Equal(t, "second", logs[1].SearchTerm)
}

func TestBatchLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "batch-1", "clients.csv", 3)
	require.NoError(t, err)
	assert.Equal(t, BatchStatusProcessing, batch.Status)

	results := []models.ScreeningResult{
		{
			InputName:   "Vladimir Putin",
			MatchStatus: models.MatchStatusPending,
			Matches: []models.ScreeningMatch{
				{SanctionID: "EU-1", MatchScore: 100, MatchName: "Vladimir Putin"},
				{SanctionID: "UK-7", MatchScore: 100, MatchName: "Vladimir Putin"},
			},
		},
		{InputName: "Jane Nobody", MatchStatus: models.MatchStatusNoMatch},
		{InputName: "Broken Input", MatchStatus: models.MatchStatusError, Error: "screening panicked"},
	}
	require.NoError(t, s.SaveBatchResults(ctx, "batch-1", BatchStatusCompleted, results))

	got, gotResults, err := s.GetBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, BatchStatusCompleted, got.Status)
	assert.Equal(t, 2, got.FlaggedCount) // PENDING and ERROR count as flagged, NO_MATCH does not
	require.Len(t, gotResults, 3)
	assert.Len(t, gotResults[0].Matches, 2)
	assert.Empty(t, gotResults[1].Matches)
	assert.Equal(t, models.MatchStatusError, gotResults[2].MatchStatus)
}

func TestMarkBatchFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateBatch(ctx, "batch-2", "", 10)
	require.NoError(t, err)
	require.NoError(t, s.MarkBatchFailed(ctx, "batch-2"))

	got, _, err := s.GetBatch(ctx, "batch-2")
	require.NoError(t, err)
	assert.Equal(t, BatchStatusFailed, got.Status)
}

func TestGetBatchNotFound(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.GetBatch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
