package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ASlavko/SanctionsDefenderV2/internal/screening"
	"github.com/ASlavko/SanctionsDefenderV2/internal/store"
	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

type singleScreeningRequest struct {
	SearchTerm string `json:"search_term" binding:"required"`
	SearchType string `json:"search_type"` // COMPANY or INDIVIDUAL
	Threshold  int    `json:"threshold"`
	Limit      int    `json:"limit"`
	UserID     string `json:"user_id"`
	CompanyID  string `json:"company_id"`
}

func entityKind(searchType string) screening.EntityKind {
	if searchType == "INDIVIDUAL" {
		return screening.KindIndividual
	}
	return screening.KindCompany
}

func (s *Server) handleSingleScreening(c *gin.Context) {
	var req singleScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SearchType == "" {
		req.SearchType = "COMPANY"
	}

	matches, cleared := s.engine.Search(req.SearchTerm, entityKind(req.SearchType), req.Threshold, req.Limit)

	outcome := "no_match"
	switch {
	case cleared:
		outcome = "auto_cleared"
	case len(matches) > 0:
		outcome = "match"
		if matches[0].AutoResolved {
			outcome = "auto_confirmed"
		}
		s.metrics.MatchScores.Observe(matches[0].Score)
	}
	s.metrics.SearchesTotal.WithLabelValues(outcome).Inc()

	s.store.LogSearch(c.Request.Context(), models.SearchLog{
		Timestamp:   time.Now().UTC(),
		SearchTerm:  req.SearchTerm,
		SearchType:  req.SearchType,
		ResultCount: len(matches),
		UserID:      req.UserID,
		CompanyID:   req.CompanyID,
	})

	if matches == nil {
		matches = []screening.Match{}
	}
	c.JSON(http.StatusOK, gin.H{
		"matches":      matches,
		"result_count": len(matches),
	})
}

type batchScreeningRequest struct {
	Names      []string `json:"names" binding:"required,min=1"`
	SearchType string   `json:"search_type"`
	Threshold  int      `json:"threshold"`
	Filename   string   `json:"filename"`
}

func (s *Server) handleBatchScreening(c *gin.Context) {
	var req batchScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batchID := uuid.NewString()
	if _, err := s.store.CreateBatch(c.Request.Context(), batchID, req.Filename, len(req.Names)); err != nil {
		s.logger.Error("failed to create batch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create batch"})
		return
	}

	task := s.engine.SubmitBatch(context.Background(), batchID, req.Names, entityKind(req.SearchType), req.Threshold)
	s.rememberTask(task)
	go s.persistBatch(task)

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id":      batchID,
		"total_records": len(req.Names),
		"status":        store.BatchStatusProcessing,
	})
}

// persistBatch awaits the background screening run and writes its results.
func (s *Server) persistBatch(task *screening.BatchTask) {
	defer s.forgetTask(task.ID)

	results, err := task.Await(context.Background())
	status := store.BatchStatusCompleted
	if err != nil {
		status = store.BatchStatusCancelled
		s.logger.Warn("batch screening interrupted",
			zap.String("batch_id", task.ID),
			zap.Error(err))
	}

	rows := make([]models.ScreeningResult, 0, len(results))
	for _, res := range results {
		s.metrics.BatchItemsTotal.WithLabelValues(string(res.Status)).Inc()
		row := models.ScreeningResult{
			InputName:   res.InputName,
			MatchStatus: res.Status,
			Error:       res.Error,
		}
		for _, m := range res.Matches {
			row.Matches = append(row.Matches, models.ScreeningMatch{
				SanctionID: m.Record.ID,
				MatchScore: m.Score,
				MatchName:  m.Record.OriginalName,
			})
		}
		rows = append(rows, row)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.store.SaveBatchResults(ctx, task.ID, status, rows); err != nil {
		s.logger.Error("failed to persist batch results",
			zap.String("batch_id", task.ID),
			zap.Error(err))
		if err := s.store.MarkBatchFailed(ctx, task.ID); err != nil {
			s.logger.Error("failed to mark batch failed",
				zap.String("batch_id", task.ID),
				zap.Error(err))
		}
	}
}

func (s *Server) handleGetBatch(c *gin.Context) {
	id := c.Param("id")
	batch, results, err := s.store.GetBatch(c.Request.Context(), id)
	if errors.Is(err, store.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to load batch", zap.String("batch_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load batch"})
		return
	}

	running := false
	if t := s.task(id); t != nil {
		running = !t.Done()
	}
	c.JSON(http.StatusOK, gin.H{
		"batch":   batch,
		"results": results,
		"running": running,
	})
}

func (s *Server) handleCancelBatch(c *gin.Context) {
	id := c.Param("id")
	t := s.task(id)
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no running batch with that id"})
		return
	}
	t.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"batch_id": id, "status": "cancelling"})
}

type decisionRequest struct {
	SearchTerm string `json:"search_term" binding:"required"`
	SanctionID string `json:"sanction_id"`
	Decision   string `json:"decision" binding:"required,oneof=TRUE_MATCH FALSE_POSITIVE"`
	UserID     string `json:"user_id" binding:"required"`
	Comment    string `json:"comment"`
}

func (s *Server) handleRecordDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized := screening.Normalize(req.SearchTerm)
	if normalized == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term normalizes to empty"})
		return
	}

	id, err := s.store.RecordDecision(c.Request.Context(), normalized, req.SanctionID,
		models.MatchStatus(req.Decision), req.UserID, req.Comment)
	if err != nil {
		s.logger.Error("failed to record decision",
			zap.String("term", normalized),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record decision"})
		return
	}

	// refresh the engine's decision mirror so the verdict applies immediately
	decisions, err := s.store.LoadDecisions(c.Request.Context())
	if err != nil {
		s.logger.Warn("decision saved but mirror refresh failed", zap.Error(err))
	} else {
		s.engine.RefreshDecisions(decisions)
	}

	c.JSON(http.StatusCreated, gin.H{
		"decision_id":            id,
		"search_term_normalized": normalized,
	})
}

func (s *Server) handleGetDecision(c *gin.Context) {
	normalized := screening.Normalize(c.Param("term"))

	active, err := s.store.ActiveDecision(c.Request.Context(), normalized)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		s.logger.Error("failed to load decision", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load decision"})
		return
	}

	history, err := s.store.DecisionHistory(c.Request.Context(), normalized)
	if err != nil {
		s.logger.Error("failed to load decision history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load decision history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"search_term_normalized": normalized,
		"active":                 active,
		"history":                history,
	})
}

func (s *Server) handleSearchLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := s.store.RecentSearchLogs(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to load search logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load search logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.engine.Status()
	c.JSON(http.StatusOK, gin.H{
		"initialized":    st.Initialized,
		"index_size":     st.IndexSize,
		"record_count":   st.RecordCount,
		"decision_count": st.DecisionCount,
		"loaded_at":      st.LoadedAt,
	})
}

// handleReload rebuilds the snapshot from the persistence gateway. On any
// gateway error the previous snapshot stays active.
func (s *Server) handleReload(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	records, err := s.store.LoadActiveRecords(ctx)
	if err != nil {
		s.logger.Error("reload aborted, keeping previous snapshot", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load records"})
		return
	}
	decisions, err := s.store.LoadDecisions(ctx)
	if err != nil {
		s.logger.Error("reload aborted, keeping previous snapshot", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load decisions"})
		return
	}

	s.engine.Reload(records, decisions)

	st := s.engine.Status()
	s.metrics.IndexEntries.Set(float64(st.IndexSize))
	s.metrics.IndexRecords.Set(float64(st.RecordCount))
	s.metrics.ReloadDuration.Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{
		"index_size":     st.IndexSize,
		"record_count":   st.RecordCount,
		"decision_count": st.DecisionCount,
	})
}
