package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newspaper-reader/internal/config"
	"newspaper-reader/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	// Handlers
	var audio handler.AudioSource
	if container.AudioSource != nil {
		audio = container.AudioSource
	}
	readerHandler := handler.NewReaderHandler(
		container.Session,
		audio,
		container.Config.GetMaxFileSize(),
		container.Logger,
	)
	speechHandler := handler.NewSpeechHandler(container.Synthesizer, container.Logger)
	newspaperHandler := handler.NewNewspaperHandler(container.Persistence, container.Logger)
	authHandler := handler.NewAuthHandler()

	authMiddleware := handler.PassThrough
	if container.AuthService != nil {
		authMiddleware = handler.NewAuthMiddleware(
			container.AuthService,
			container.Logger,
		).Middleware
	}

	// Router
	router := handler.NewRouter(
		readerHandler,
		speechHandler,
		newspaperHandler,
		authHandler,
		authMiddleware,
		handler.RouterOptions{
			AllowedOrigins:  container.Config.AllowedOrigins,
			UploadRateLimit: container.Config.UploadRateLimit,
		},
	)

	// start server
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Closing the session ends every event stream so Shutdown does not wait on them.
	server.RegisterOnShutdown(container.Session.Close)

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Warn("Graceful shutdown incomplete; closing connections", "error", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}
