package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sinzn/fileShare-server/internal/db"
	"github.com/sinzn/fileShare-server/internal/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Printf("service=fileshare msg=%q err=%v", "config_invalid", err)
		os.Exit(1)
	}

	// Database
	dbConn, err := server.OpenDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("service=fileshare msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Run migrations
	log.Printf("service=fileshare msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=fileshare msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=fileshare msg=%q", "migrations_complete")

	// Blob storage
	blobs, err := server.NewBlobStore(cfg)
	if err != nil {
		log.Printf("service=fileshare msg=%q err=%v", "blob_store_failed", err)
		os.Exit(1)
	}

	srv := server.New(cfg, dbConn, blobs)

	// Start the HTTP server in a background goroutine so we can listen
	// for OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=fileshare msg=%q addr=%s", "starting", cfg.Addr)
		errCh <- srv.Start()
	}()

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (container stop).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=fileshare msg=%q signal=%s", "shutting_down", sig.String())
		// Give in-flight requests 5 seconds to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=fileshare msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=fileshare msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=fileshare msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}
