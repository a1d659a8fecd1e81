package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/finance-clusters/internal/api/handlers"
	"github.com/dvloznov/finance-clusters/internal/api/middleware"
	"github.com/dvloznov/finance-clusters/internal/config"
	"github.com/dvloznov/finance-clusters/internal/jobs"
	"github.com/dvloznov/finance-clusters/internal/jobs/inmemory"
	"github.com/dvloznov/finance-clusters/internal/logger"
	"github.com/dvloznov/finance-clusters/internal/metrics"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("SPENDMAP_CONFIG"), "config file path (or set SPENDMAP_CONFIG)")
		port       = flag.Int("port", 0, "HTTP server port; overrides api.port")
	)
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != 0 {
		cfg.API.Port = *port
	}

	// Initialize logger
	log, err := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to create logger")
	}

	somCfg, err := cfg.SOM.ToSOM()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid map configuration")
	}

	recorder := metrics.NewRecorder(true)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.API.QueueSize, cfg.API.Workers, jobStore)

	// Start workers in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewClusteringHandler(somCfg, recorder)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}
	log.Info().Int("workers", cfg.API.Workers).Int("queue_size", cfg.API.QueueSize).Msg("Job workers started")

	// Create router
	mux := http.NewServeMux()
	handlers.Register(mux,
		handlers.NewClusteringsHandler(jobQueue, somCfg, log),
		handlers.NewJobsHandler(jobStore, log),
	)
	mux.Handle("/metrics", recorder.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)

	// Create HTTP server
	addr := ":" + strconv.Itoa(cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
