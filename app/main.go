package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aiflash/app/ai"
	"aiflash/app/api"
	"aiflash/app/cfg"
	"aiflash/app/database"
	"aiflash/app/feed"
	"aiflash/app/pipeline"
	"aiflash/app/retrieval"
	"aiflash/app/tasks"
	"aiflash/app/vector"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Printf("Starting AIFlash server (version %s)...", appCfg.Version)

	// Database connection
	log.Println("Opening database...")
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	// Load feed sources
	log.Printf("Loading feed sources from %s...", appCfg.SourcesFile)
	sources, err := feed.LoadSources(appCfg.SourcesFile)
	if err != nil {
		log.Fatal("Failed to load feed sources:", err)
	}
	log.Printf("Loaded %d feed sources", len(sources))

	// Initialize core components
	articleRepo := database.NewArticleRepository(db)

	vectorIndex, err := vector.NewSQLiteIndex(db)
	if err != nil {
		log.Fatal("Failed to load vector index:", err)
	}
	log.Printf("Vector index loaded with %d documents", vectorIndex.Count())

	aiClient := ai.NewClient(appCfg.AIEndpoint, appCfg.AIAPIKey, appCfg.ChatModel, appCfg.EmbeddingModel)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent, appCfg.ExtractFloor)

	ingestor := pipeline.NewIngestor(fetcher, articleRepo, sources, appCfg.FeedLimit)
	scorer := pipeline.NewScorer(articleRepo, aiClient)
	enricher := pipeline.NewEnricher(articleRepo, aiClient)
	indexer := pipeline.NewIndexer(articleRepo, aiClient, vectorIndex)

	engine := retrieval.NewEngine(articleRepo, vectorIndex, aiClient, aiClient,
		feed.TrustedSources(sources), appCfg.TopicTopK)

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(ingestor, scorer, enricher, indexer, articleRepo)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(engine, articleRepo, vectorIndex, scheduler, appCfg.BriefTopN)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Morning brief: http://localhost:%s/api/morning-brief", appCfg.Port)
		log.Printf("  Topic feed:    http://localhost:%s/api/topic-feed?q=<query>", appCfg.Port)
		log.Printf("  Card detail:   http://localhost:%s/api/card/<content_id>", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  Job triggers:  http://localhost:%s/api/jobs/<type> (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  Job triggers:  DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("AIFlash server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("AIFlash server shutdown complete")
}
