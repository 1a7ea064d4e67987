package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"epl_standings/ingestion/internal/cache"
	"epl_standings/ingestion/internal/client"
	"epl_standings/ingestion/internal/config"
	"epl_standings/ingestion/internal/pipeline"
	"epl_standings/ingestion/internal/repository"
	"epl_standings/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting EPL standings ETL")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Int("league", cfg.LeagueID).
		Int("season", cfg.Season).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize API client
	apiClient := client.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout)
	log.Info().Msg("API-Football client initialized")

	// Initialize database connection
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:           cfg.DatabaseHost,
		Port:           strconv.Itoa(cfg.DatabasePort),
		User:           cfg.DatabaseUser,
		Password:       cfg.DatabasePassword,
		Database:       cfg.DatabaseName,
		SSLMode:        cfg.DatabaseSSLMode,
		PruneStaleRows: cfg.PruneStaleRows,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize optional payload cache
	var payloadCache pipeline.PayloadCache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      time.Duration(cfg.PayloadCacheTTL) * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			payloadCache = redisCache
		}
	}

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	pipe := pipeline.New(cfg, apiClient, db.Standings, payloadCache)

	// Cron mode: keep re-running the pipeline on the configured schedule
	if cfg.RunSchedule != "" {
		sched := scheduler.NewScheduler(cfg, pipe)
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}

		<-ctx.Done()
		sched.Stop()
		log.Info().Msg("ETL shutdown complete")
		return
	}

	// Default mode: one run to completion
	if err := pipe.Run(ctx); err != nil {
		var verr *pipeline.VerificationError
		if errors.As(err, &verr) {
			// Data is committed; surface the mismatch for operator follow-up
			log.Warn().Err(err).Msg("ETL run committed but failed verification")
		} else {
			log.Error().Err(err).Msg("ETL run failed")
		}
		os.Exit(1)
	}
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}

// startMetricsServer starts the Prometheus metrics endpoint
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("Metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
