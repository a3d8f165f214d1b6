package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skyhawk-aero/wxbrief/internal/airports"
	"github.com/skyhawk-aero/wxbrief/internal/api"
	"github.com/skyhawk-aero/wxbrief/internal/config"
	"github.com/skyhawk-aero/wxbrief/internal/storage/sqlite"
	"github.com/skyhawk-aero/wxbrief/internal/weather"
	"github.com/skyhawk-aero/wxbrief/internal/websocket"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting wxbrief server",
		logger.String("version", Version),
		logger.String("station", cfg.Station.AirportCode),
	)

	// Airport reference index
	airportIndex, err := airports.LoadFile(cfg.Station.AirportsDBPath)
	if err != nil {
		log.Error("Failed to load airports database", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Loaded airports database",
		logger.String("path", cfg.Station.AirportsDBPath),
		logger.Int("airports", airportIndex.Len()))

	// Snapshot storage
	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLiteBasePath))
		os.Exit(1)
	}
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath, "wxbrief.db")
	snapshotStorage, err := sqlite.NewSnapshotStorage(dbPath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer snapshotStorage.Close()
	log.Info("Using SQLite storage", logger.String("path", dbPath))

	// Weather orchestrator
	client := weather.NewClient(cfg.Wx.Client, log)
	bundler := weather.NewBundler(airportIndex, log)
	weatherService := weather.NewService(cfg.Wx.Service, client, snapshotStorage, bundler, clockwork.NewRealClock(), log)

	// WebSocket hub
	wsServer := websocket.NewServer(log)
	go wsServer.Run()
	weatherService.SetBroadcaster(wsServer)

	if err := weatherService.Start(); err != nil {
		log.Error("Failed to start weather service", logger.Error(err))
		os.Exit(1)
	}

	// API router
	router := api.NewRouter(weatherService, bundler, airportIndex, snapshotStorage, wsServer, cfg.Server.StaticFilesDir, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", addr), logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	log.Info("Stopping weather service...")
	weatherService.Stop()
	log.Info("Weather service stopped.")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete")
	}

	log.Info("Server fully stopped")
}
