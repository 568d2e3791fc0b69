// cmd/server/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Raymond16-cyber/aura-backend/internal/config"
	"github.com/Raymond16-cyber/aura-backend/internal/logger"
	"github.com/Raymond16-cyber/aura-backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger; replaced once config is loaded.
	boot, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		boot.Sugar().Fatalf("failed to load config: %v", err)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		boot.Sugar().Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	app, err := server.NewAppServer(cfg, log)
	if err != nil {
		log.Sugar().Fatalf("failed to initialize server: %v", err)
	}

	// Start server in a goroutine
	go func() {
		if err := app.Run(); err != nil {
			log.Sugar().Infof("server stopped: %v", err)
		}
	}()

	// Wait for interrupt (SIGINT/SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Sugar().Info("Received shutdown signal")
	app.GracefulStop()
	log.Sugar().Info("Server stopped")
}
