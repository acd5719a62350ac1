// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beaconbay/backend/internal/chart/svg"
	"github.com/beaconbay/backend/internal/config"
	"github.com/beaconbay/backend/internal/mapping"
	"github.com/beaconbay/backend/internal/report"
	"github.com/beaconbay/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Sessions SessionManager
	Mapping  mapping.Store
	Config   *config.AppConfig
	Logger   *slog.Logger
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Session  SessionHandler
	Device   DeviceHandler
	Timeline TimelineHandler
	File     FileHandler
	Mapping  MappingHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	limits := Limits{AllowImage: cfg.ImageTypeAllowed}
	if n, err := config.ParseSize(cfg.Security.MaxLogSize); err == nil {
		limits.MaxLogSize = n
	}
	if n, err := config.ParseSize(cfg.Security.MaxImageSize); err == nil {
		limits.MaxImageSize = n
	}

	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Sessions),
		Session:  NewSessionHandler(deps.Store, deps.Sessions, limits, deps.Logger),
		Device:   NewDeviceHandler(deps.Sessions, ThemeFromConfig(cfg.Chart.Theme)),
		Timeline: NewTimelineHandler(deps.Sessions, report.NewPDFExporter(report.DefaultTitle)),
		File:     NewFileHandler(deps.Store, cfg.Storage.RecentFiles),
		Mapping:  NewMappingHandler(deps.Mapping, deps.Logger),
	}
}

// ThemeFromConfig converts the configured colors to an SVG theme.
func ThemeFromConfig(t config.ThemeConfig) svg.Theme {
	return svg.Theme{
		Text:       t.Text,
		Border:     t.Border,
		Foreground: t.Foreground,
		Accent:     t.Accent,
		FontFamily: t.FontFamily,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, cfg *config.AppConfig) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Session lifecycle
	sessions := apiGroup.Group("/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession)
	sessions.GET("/:id", handlers.Session.HandleGetSession)
	sessions.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessions.POST("/:id/log", handlers.Session.HandleLoadLog)
	sessions.POST("/:id/floorplan", handlers.Session.HandleUploadFloorPlan)
	sessions.GET("/:id/floorplan", handlers.Session.HandleGetFloorPlan)

	// Devices
	sessions.GET("/:id/devices", handlers.Device.HandleGetDevices)
	sessions.GET("/:id/devices/:deviceId", handlers.Device.HandleGetDevice)
	sessions.GET("/:id/devices/:deviceId/sparkline.svg", handlers.Device.HandleGetSparkline)

	// Timeline and exports
	sessions.POST("/:id/timeline", handlers.Timeline.HandleTimeline)
	sessions.GET("/:id/exports/:exportId/data", handlers.Timeline.HandleExportData)
	sessions.GET("/:id/exports/:exportId/image", handlers.Timeline.HandleExportImage)
	sessions.GET("/:id/exports/:exportId/pdf", handlers.Timeline.HandleExportPDF)

	// Archived files
	apiGroup.GET("/files/recent", handlers.File.HandleGetRecentFiles)
	if cfg == nil || cfg.Security.AllowFileDeletion {
		apiGroup.DELETE("/files/:id", handlers.File.HandleDeleteFile)
	}

	// Location mapping
	mappingGroup := apiGroup.Group("/mapping")
	mappingGroup.GET("", handlers.Mapping.HandleGetMapping)
	mappingGroup.PUT("", handlers.Mapping.HandleSetMapping)
	mappingGroup.DELETE("", handlers.Mapping.HandleClearMapping)
	mappingGroup.GET("/export", handlers.Mapping.HandleExportMapping)
	mappingGroup.POST("/import", handlers.Mapping.HandleImportMapping)

	if cfg == nil || cfg.Advanced.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Server.ReadTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      time.Duration(cfg.Server.ReadTimeout) * time.Second,
			ErrorMessage: "Request timeout - analysis took too long",
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/log")
			},
		}))
	}

	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/pdf")
			},
		}))
	}

	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition},
		}))
	}
}
