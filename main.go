package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IngeLeu/OSARI/internal/config"
	"github.com/IngeLeu/OSARI/internal/hub"
	"github.com/IngeLeu/OSARI/internal/logging"
	"github.com/IngeLeu/OSARI/internal/policy"
	"github.com/IngeLeu/OSARI/internal/repository"
	"github.com/IngeLeu/OSARI/internal/service"
	handler "github.com/IngeLeu/OSARI/internal/transport/http"
	"github.com/IngeLeu/OSARI/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.New("osari", cfg.LogLevel)

	logger.Infof("Starting OSARI...")
	logger.Infof("API Port: %d", cfg.HTTPPort)
	logger.Infof("Display WebSocket Port: %d", cfg.WSPort)
	logger.Infof("Database: %s", cfg.DatabaseURL)
	logger.Infof("Record directory: %s", cfg.DataDir)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyContent := policy.DefaultPolicy
	if cfg.PolicyFile != "" {
		raw, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			logger.Fatalf("Failed to read policy file: %v", err)
		}
		policyContent = string(raw)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		logger.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize hub
	connectionHub := hub.NewHub(logging.Named(logger, "hub"))
	go connectionHub.Run()

	// Initialize service
	svc := service.New(db, connectionHub, cfg, policyEngine, logging.Named(logger, "service"))

	// Initialize WebSocket server
	wsServer := ws.NewServer(cfg, connectionHub, svc, logging.Named(logger, "ws"))

	apiServer := handler.NewAPIServer(svc, wsServer, logging.Named(logger, "api"))
	displayServer := handler.NewDisplayServer(wsServer, connectionHub, logging.Named(logger, "display"))

	// Start API server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := apiServer.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start API server: %v", err)
		}
	}()

	// Start display server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.WSPort)
		if err := displayServer.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start display server: %v", err)
		}
	}()

	logger.Infof("API started on port %d", cfg.HTTPPort)
	logger.Infof("Display server started on port %d", cfg.WSPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down OSARI...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Running sessions are aborted so their final status is written.
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to stop running sessions: %v", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to shutdown API server gracefully: %v", err)
	}
	if err := displayServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to shutdown display server gracefully: %v", err)
	}

	logger.Infof("OSARI stopped")
}
