package server

import (
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ASlavko/SanctionsDefenderV2/internal/config"
	"github.com/ASlavko/SanctionsDefenderV2/internal/metrics"
	"github.com/ASlavko/SanctionsDefenderV2/internal/screening"
	"github.com/ASlavko/SanctionsDefenderV2/internal/store"
)

// Server exposes the screening engine over HTTP. Handlers are thin contract
// carriers; all matching logic lives in the screening package.
type Server struct {
	logger  *zap.Logger
	cfg     *config.Config
	engine  *screening.Engine
	store   *store.Store
	metrics *metrics.Metrics

	mu    sync.Mutex
	tasks map[string]*screening.BatchTask
}

// New creates the HTTP server around an engine and its persistence gateway.
func New(logger *zap.Logger, cfg *config.Config, engine *screening.Engine, st *store.Store, m *metrics.Metrics) *Server {
	return &Server{
		logger:  logger,
		cfg:     cfg,
		engine:  engine,
		store:   st,
		metrics: m,
		tasks:   make(map[string]*screening.BatchTask),
	}
}

// Router builds the gin router with logging, recovery and CORS middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/screening/single", s.handleSingleScreening)
		v1.POST("/screening/batch", s.handleBatchScreening)
		v1.GET("/screening/batch/:id", s.handleGetBatch)
		v1.POST("/screening/batch/:id/cancel", s.handleCancelBatch)

		v1.POST("/decisions", s.handleRecordDecision)
		v1.GET("/decisions/:term", s.handleGetDecision)

		v1.GET("/search-logs", s.handleSearchLogs)
		v1.GET("/status", s.handleStatus)
		v1.POST("/reload", s.handleReload)
	}

	return router
}

func (s *Server) rememberTask(t *screening.BatchTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *Server) task(id string) *screening.BatchTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

func (s *Server) forgetTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}
