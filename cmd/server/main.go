package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mod-troubleshooter/loadorder/internal/config"
	"github.com/mod-troubleshooter/loadorder/internal/handleregistry"
	"github.com/mod-troubleshooter/loadorder/internal/handlers"
	"github.com/mod-troubleshooter/loadorder/internal/history"
	"github.com/mod-troubleshooter/loadorder/internal/metadata"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	provider, err := metadata.NewCachingProvider(512)
	if err != nil {
		log.Fatalf("Failed to create metadata provider: %v", err)
	}

	historyStore, err := history.Open(history.Config{DBPath: cfg.HistoryDBPath})
	if err != nil {
		log.Fatalf("Failed to open history store: %v", err)
	}

	registry := handleregistry.New()

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /api/health", healthHandler)

	// Profile lifecycle endpoints
	profileHandler := handlers.NewProfileHandler(registry, provider)
	mux.HandleFunc("POST /api/profiles", profileHandler.Open)
	mux.HandleFunc("DELETE /api/profiles/{handle}", profileHandler.Close)
	mux.HandleFunc("POST /api/profiles/{handle}/load", profileHandler.Load)
	mux.HandleFunc("GET /api/profiles/{handle}/plugins", profileHandler.ListPlugins)
	mux.HandleFunc("GET /api/profiles/{handle}/consistency", profileHandler.Consistency)

	// Load order mutation endpoints
	mutationHandler := handlers.NewMutationHandler(registry, historyStore)
	mux.HandleFunc("POST /api/profiles/{handle}/save", mutationHandler.Save)
	mux.HandleFunc("POST /api/profiles/{handle}/plugins", mutationHandler.Add)
	mux.HandleFunc("DELETE /api/profiles/{handle}/plugins/{name}", mutationHandler.Remove)
	mux.HandleFunc("PUT /api/profiles/{handle}/loadorder", mutationHandler.SetLoadOrder)
	mux.HandleFunc("PUT /api/profiles/{handle}/plugins/{name}/index", mutationHandler.SetPluginIndex)
	mux.HandleFunc("POST /api/profiles/{handle}/plugins/{name}/activate", mutationHandler.Activate)
	mux.HandleFunc("POST /api/profiles/{handle}/plugins/{name}/deactivate", mutationHandler.Deactivate)
	mux.HandleFunc("PUT /api/profiles/{handle}/active", mutationHandler.SetActivePlugins)

	// Save history endpoints
	historyHandler := handlers.NewHistoryHandler(historyStore, cfg.HistoryListLimit)
	mux.HandleFunc("GET /api/profiles/{handle}/history", historyHandler.List)
	mux.HandleFunc("GET /api/profiles/{handle}/history/diff", historyHandler.Diff)

	// Configure CORS for the companion frontend
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	handler := c.Handler(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.Port)
		log.Printf("Environment: %s", cfg.Environment)
		log.Printf("Data directory: %s", cfg.DataDir)
		log.Printf("Default game: %s", cfg.DefaultGame)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	if err := historyStore.Close(); err != nil {
		log.Printf("Error closing history store: %v", err)
	}

	log.Println("Server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
