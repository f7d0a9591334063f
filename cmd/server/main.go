package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stwalsh4118/recordbook/internal/config"
	"github.com/stwalsh4118/recordbook/internal/handlers"
	"github.com/stwalsh4118/recordbook/internal/location"
	"github.com/stwalsh4118/recordbook/internal/logger"
	"github.com/stwalsh4118/recordbook/internal/repository"
	"github.com/stwalsh4118/recordbook/internal/router"
	"github.com/stwalsh4118/recordbook/internal/services"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithOptions(logger.Options{
		Env:   cfg.Server.Env,
		Level: cfg.Server.LogLevel,
	})
	log.Info("Starting Recordbook API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"driver":      cfg.Database.Driver,
	})

	// Connect the record store
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	store, err := repository.Open(connectCtx, cfg.Database)
	cancelConnect()
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"driver": cfg.Database.Driver,
			"name":   cfg.Database.Name,
		})
	}

	log.Info("Database connection established", map[string]interface{}{
		"driver":   store.Driver,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Load the states/districts table
	table, err := location.Load(cfg.Location.DataPath)
	if err != nil {
		log.Fatal("Failed to load location data", err, map[string]interface{}{
			"path": cfg.Location.DataPath,
		})
	}
	log.Info("Location data loaded", map[string]interface{}{
		"states": table.Len(),
	})

	// Initialize service layer
	recordService := services.NewRecordService(store.Records, validation.New(), log,
		services.WithStoreTimeout(cfg.Database.Timeout))
	locationService := services.NewLocationService(table, log)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine := router.New(router.Options{
		Logger:    log,
		Env:       cfg.Server.Env,
		Verbose:   !cfg.Server.IsProduction(),
		Origins:   cfg.CORS.Origins,
		Driver:    store.Driver,
		DB:        store,
		Records:   recordService,
		Locations: locationService,
		Registry:  registry,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	if err := store.Close(shutdownCtx); err != nil {
		log.Error("Failed to close database connection", err, map[string]interface{}{
			"driver": store.Driver,
		})
	}

	log.Info("Server exited", nil)
}
