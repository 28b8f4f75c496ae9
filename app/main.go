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

	"github.com/Reaperrhs/RSS-Feed-Generator/app/api"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/cfg"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/database"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/extract"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/feed"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/feedcfg"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/fetch"
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

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting RSS Feed Generator %s...", cfg.GetVersion())

	// Database connection and schema
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	schemaVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready at %s (schema version %d, dirty: %v)", appCfg.DBPath, schemaVersion, dirty)

	feedRepo := database.NewFeedRepository(db)

	// Initialize pipeline components
	fetcher := fetch.NewFetcher(appCfg.UserAgent, appCfg.FetchTimeout)
	extractionClient := extract.NewClient(appCfg.OpenAIKey, appCfg.OpenAIModel, appCfg.OpenAIBaseUrl)
	processor := feed.NewProcessor(fetcher, extractionClient)
	feedParser := feed.NewParser()

	if appCfg.OpenAIKey == "" {
		log.Printf("Warning: OPENAI_API_KEY not set, feed generation will fail")
	}

	// Register bootstrap feed definitions
	definitions, err := feedcfg.NewLoader(appCfg.FeedsDir, appCfg.DefaultCacheAge).LoadAll()
	if err != nil {
		log.Fatal("Failed to load feed definitions:", err)
	}

	if len(definitions) > 0 {
		registeredCount := 0
		for _, definition := range definitions {
			id, err := feedRepo.Upsert(definition.Record())
			if err != nil {
				log.Printf("Warning: Failed to register feed %s: %v", definition.Name, err)
				continue
			}
			log.Printf("Registered feed: %s (ID: %s, URL: %s)", definition.Name, id, definition.URL)
			registeredCount++
		}
		log.Printf("Successfully registered %d/%d feeds", registeredCount, len(definitions))
	}

	// Initialize HTTP server
	apiHandler := api.NewHandler(feedRepo, processor, feedParser, nil, appCfg.DefaultCacheAge)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Generation requests wait on model inference and several page
	// fetches, so the write timeout is generous.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Generate:      http://localhost:%s/generate?url=<page-url>", appCfg.Port)
		log.Printf("  Feed:          http://localhost:%s/feeds/<id>", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List feeds:    http://localhost:%s/api/feeds (requires API key)", appCfg.Port)
			log.Printf("  Create feed:   http://localhost:%s/api/feeds (POST, requires API key)", appCfg.Port)
			log.Printf("  Feed details:  http://localhost:%s/api/feeds/<id>/details (requires API key)", appCfg.Port)
			log.Printf("  Delete feed:   http://localhost:%s/api/feeds/<id> (DELETE, requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("RSS Feed Generator started successfully!")
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

	log.Println("RSS Feed Generator shutdown complete")
}
