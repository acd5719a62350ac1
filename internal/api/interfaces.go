// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/beaconbay/backend/internal/export"
	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionHandler handles session lifecycle and log loading
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleLoadLog(c echo.Context) error
	HandleUploadFloorPlan(c echo.Context) error
	HandleGetFloorPlan(c echo.Context) error
}

// DeviceHandler handles the ranked device listing and per-device details
type DeviceHandler interface {
	HandleGetDevices(c echo.Context) error
	HandleGetDevice(c echo.Context) error
	HandleGetSparkline(c echo.Context) error
}

// TimelineHandler handles timeline rendering and export downloads
type TimelineHandler interface {
	HandleTimeline(c echo.Context) error
	HandleExportData(c echo.Context) error
	HandleExportImage(c echo.Context) error
	HandleExportPDF(c echo.Context) error
}

// FileHandler handles archived uploads
type FileHandler interface {
	HandleGetRecentFiles(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// MappingHandler handles the device-to-location mapping
type MappingHandler interface {
	HandleGetMapping(c echo.Context) error
	HandleSetMapping(c echo.Context) error
	HandleClearMapping(c echo.Context) error
	HandleExportMapping(c echo.Context) error
	HandleImportMapping(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() *models.Session
	Get(id string) (*models.Session, bool)
	Delete(id string) bool
	Count() int
	Load(id string, src session.Source, raw []byte) (*models.Session, error)
	Page(ctx context.Context, id string, page int) (*models.DevicePage, error)
	Device(ctx context.Context, id, deviceID string) (*session.DeviceDetail, error)
	Timeline(ctx context.Context, id string, req session.TimelineRequest) (*session.TimelineResult, error)
	Export(id, bundleID string) (*export.Bundle, error)
	SetFloorPlan(id, fileID string) error
	FloorPlan(id string) (string, error)
}

var _ SessionManager = (*session.Manager)(nil)
