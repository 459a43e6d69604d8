package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"linkhub-gateway/internal/database"
	"linkhub-gateway/internal/infrastructure/config"
	"linkhub-gateway/internal/infrastructure/di"
	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/server"
)

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Open the database and attach the structured logger to it
	if err := database.InitDatabase(cfg.Database.Database); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDatabase()
	defer db.Close()

	if err := logger.InitLogger(db.GetDB()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.GetLogger()
	l.SetLevel(logger.LogLevel(strings.ToUpper(cfg.Logging.Level)))

	container, err := di.New(cfg, db, l)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	srv := server.New()
	container.Handler.RegisterRoutes(srv.Router)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info(logger.EventSystemStart, "Server starting", map[string]interface{}{
			"addr":       cfg.Server.Addr(),
			"base_url":   cfg.Gateway.BaseURL,
			"rate_limit": cfg.RateLimit.Backend,
			"version":    cfg.Application.Version,
			"tls":        cfg.Server.TLSEnabled(),
		})
		var err error
		if cfg.Server.TLSEnabled() {
			err = httpServer.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for an interrupt, then shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	// Let pending usage and visit writes land before the database closes
	if err := container.Close(); err != nil {
		log.Printf("Failed to release resources: %v", err)
	}

	l.Info(logger.EventSystemStop, "Server exited", nil)
}
