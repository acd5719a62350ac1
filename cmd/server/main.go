package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/beaconbay/backend/internal/api"
	"github.com/beaconbay/backend/internal/config"
	"github.com/beaconbay/backend/internal/logging"
	"github.com/beaconbay/backend/internal/mapping"
	"github.com/beaconbay/backend/internal/metrics"
	"github.com/beaconbay/backend/internal/session"
	"github.com/beaconbay/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), config.FileName)
	if p := os.Getenv("BEACONBAY_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Advanced.LogLevel, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, configPath, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, configPath string, log *slog.Logger) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if cfg.Advanced.EnableMetrics {
		metrics.InitMetrics()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	labels, err := mapping.Open(ctx, mapping.Options{
		Backend:    cfg.Storage.MappingBackend,
		FilePath:   cfg.Storage.MappingFile,
		SQLitePath: cfg.Storage.SQLitePath,
		RedisAddr:  cfg.Storage.RedisAddr,
		RedisKey:   cfg.Storage.RedisKey,
	})
	if err != nil {
		return fmt.Errorf("open mapping store: %w", err)
	}
	if closer, ok := labels.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	sessionMgr := session.NewManager(labels, session.Options{
		PageSize:    cfg.Processing.PageSize,
		MaxSessions: cfg.Processing.MaxSessions,
		DefaultTopN: cfg.Processing.DefaultTopN,
		MaxTopN:     cfg.Processing.MaxTopN,
		Theme:       api.ThemeFromConfig(cfg.Chart.Theme),
		Location:    loc,
		Logger:      log,
	})
	sessionMgr.StartCleanup(ctx, cfg.CleanupInterval(), cfg.SessionTimeout())

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, cfg)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:    fileStore,
		Sessions: sessionMgr,
		Mapping:  labels,
		Config:   cfg,
		Logger:   log,
		Version:  Version,
	}), cfg)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	log.Info("BeaconBay analyzer starting",
		"version", Version,
		"build", BuildTime,
		"config", configPath,
		"listen", cfg.GetServerAddr(),
		"data", cfg.GetDataDir(),
		"mapping", cfg.Storage.MappingBackend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
