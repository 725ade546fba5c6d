package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/anonymizer"
	"github.com/seclyra/veil/internal/audit"
	"github.com/seclyra/veil/internal/cache"
	"github.com/seclyra/veil/internal/config"
	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/mapping"
	"github.com/seclyra/veil/internal/ner"
	"github.com/seclyra/veil/internal/profile"
	"github.com/seclyra/veil/internal/server"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("veil %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *healthCheck {
		performHealthCheck(cfg.Server.Port)
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: true,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting veil",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	// Profile resolver with hot reload
	resolver := profile.NewResolver(cfg.Privacy.ProfilePath, log)
	resolver.Watch()

	// NER collaborator, optionally behind a Redis result cache
	var analyzer ner.Analyzer = ner.Disabled{}
	if cfg.NER.Enabled {
		analyzer = ner.NewClient(ner.ClientConfig{
			URL:     cfg.NER.URL,
			Timeout: cfg.NER.Timeout,
		}, log)

		if cfg.Cache.Enabled {
			cached, err := cache.NewAnalyzerCache(analyzer, &cache.Config{
				RedisURL:   cfg.Cache.RedisURL,
				DefaultTTL: cfg.Cache.DefaultTTL,
				KeyPrefix:  cfg.Cache.KeyPrefix,
			}, log)
			if err != nil {
				log.Warn("Analyzer cache unavailable, calling analyzer directly", zap.Error(err))
			} else {
				analyzer = cached
				defer cached.Close()
			}
		}
	}

	// Core pipeline
	store := mapping.NewStore(cfg.Privacy.StoreCapacity, log)
	detector := anonymizer.NewDetector(analyzer, anonymizer.Options{
		MinTextLength:   cfg.Privacy.MinTextLength,
		MaxPhraseWords:  cfg.Privacy.MaxPhraseWords,
		MinEntityLength: cfg.Privacy.MinEntityLength,
		Language:        cfg.NER.Language,
	}, log)
	processor := anonymizer.NewTextProcessor(detector, store, cfg.Privacy.TypePrefixFallback, log)
	walker := anonymizer.NewWalker(processor)
	pipeline := anonymizer.NewPipeline(resolver, walker, store, log)

	// Optional audit sink
	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.NewStore(&audit.Config{
			DatabaseURL:     cfg.Audit.DatabaseURL,
			MaxOpenConns:    cfg.Audit.MaxOpenConns,
			MaxIdleConns:    cfg.Audit.MaxIdleConns,
			ConnMaxLifetime: cfg.Audit.ConnMaxLifetime,
		}, log)
		if err != nil {
			log.Warn("Audit store unavailable, continuing without auditing", zap.Error(err))
		} else {
			defer auditStore.Close()
		}
	}

	srv := server.New(cfg, pipeline, resolver, auditStore, log)

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// performHealthCheck performs a health check against the running server
func performHealthCheck(port int) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
