/*
Package main is the entry point for the Shamba chat server.

It loads configuration, initializes logging, connects PostgreSQL and the
media bucket, wires the real-time delivery core, and runs the HTTP server
until an interrupt signal triggers a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shambachat/internal/app/chat"
	"shambachat/internal/app/db"
	"shambachat/internal/app/storage"
	"shambachat/internal/app/store"
	"shambachat/internal/configs"
	"shambachat/internal/handler"
	"shambachat/internal/pkg/auth/jwt"
	"shambachat/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.Init(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	dataStore := store.NewPostgres(pool)

	storageService, err := storage.NewService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize media storage")
	}

	registry := chat.NewRegistry()
	dispatcher := chat.NewDispatcher(registry)
	router := chat.NewRouter(dataStore, storageService, dispatcher)

	deps := &handler.AppDeps{
		Config:  cfg,
		Store:   dataStore,
		Storage: storageService,
		Sessions: chat.SessionDeps{
			Verifier:   jwt.NewVerifier(cfg.JWTSecret, dataStore),
			Authorizer: chat.NewAuthorizer(dataStore),
			Registry:   registry,
			Router:     router,
		},
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler.Router(deps),
		ReadTimeout: 5 * time.Second,
		// Writes stay open for the lifetime of a WebSocket connection, so
		// the server-level write timeout must be disabled.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Shamba Chat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
