package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/video-stream/captionsync/internal/api"
	"github.com/video-stream/captionsync/internal/auth"
	"github.com/video-stream/captionsync/internal/config"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/job"
	"github.com/video-stream/captionsync/internal/playback"
	"github.com/video-stream/captionsync/internal/storage"
	"github.com/video-stream/captionsync/internal/subtitle"
)

func main() {
	cfg := config.Load()

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Engine tunables: env defaults overlaid with the settings table
	engine := func() config.Engine {
		return config.EngineSettings(cfg.Engine, database)
	}
	svc := subtitle.NewService(database, cfg.MediaPath, cfg.InboxPath, engine)

	jobQueue := job.NewJobQueue(database.DB())
	svc.Register(jobQueue)
	jobQueue.Start()
	defer jobQueue.Stop()

	registry := playback.NewRegistry(cfg.SessionTTL)
	go registry.RunJanitor(ctx, time.Minute)

	watcher, err := storage.NewWatcher(cfg.InboxPath, svc.InboxImporter(jobQueue))
	if err != nil {
		log.Fatalf("Failed to prepare caption inbox: %v", err)
	}
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[watch] inbox watcher stopped: %v", err)
		}
	}()

	router := api.NewRouter(database, jwtService, cfg, jobQueue, svc, registry)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on %s", addr)
	log.Printf("Media path: %s, caption inbox: %s", cfg.MediaPath, cfg.InboxPath)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
