package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ASlavko/SanctionsDefenderV2/internal/config"
	"github.com/ASlavko/SanctionsDefenderV2/internal/metrics"
	"github.com/ASlavko/SanctionsDefenderV2/internal/screening"
	"github.com/ASlavko/SanctionsDefenderV2/internal/server"
	"github.com/ASlavko/SanctionsDefenderV2/internal/store"
	"github.com/ASlavko/SanctionsDefenderV2/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	st := store.New(db, zapLogger)
	if err := st.AutoMigrate(); err != nil {
		zapLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := screening.NewEngine(zapLogger, screening.Options{
		DefaultThreshold: cfg.DefaultThreshold,
		DefaultLimit:     cfg.DefaultLimit,
		UsePhonetic:      cfg.UsePhonetic,
		BatchChunkSize:   cfg.BatchChunkSize,
		BatchWorkers:     cfg.BatchWorkers,
	})

	// Initial load. A failure leaves the engine uninitialized but serving:
	// searches return empty until a reload succeeds.
	loadCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := loadEngine(loadCtx, st, engine, m); err != nil {
		zapLogger.Error("Initial data load failed, serving uninitialized", zap.Error(err))
	}
	cancel()

	srv := server.New(zapLogger, cfg, engine, st, m)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	go func() {
		zapLogger.Info("Screening service listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Shutdown error", zap.Error(err))
	}
}

func loadEngine(ctx context.Context, st *store.Store, engine *screening.Engine, m *metrics.Metrics) error {
	start := time.Now()

	records, err := st.LoadActiveRecords(ctx)
	if err != nil {
		return err
	}
	decisions, err := st.LoadDecisions(ctx)
	if err != nil {
		return err
	}

	engine.Reload(records, decisions)

	status := engine.Status()
	m.IndexEntries.Set(float64(status.IndexSize))
	m.IndexRecords.Set(float64(status.RecordCount))
	m.ReloadDuration.Observe(time.Since(start).Seconds())
	return nil
}
