// handlers_files.go - Archived upload handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store       storage.Store
	recentLimit int
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, recentLimit int) FileHandler {
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &FileHandlerImpl{
		store:       store,
		recentLimit: recentLimit,
	}
}

// HandleGetRecentFiles returns recently archived scan logs
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	limit := h.recentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError("limit")
		}
		limit = min(n, h.recentLimit)
	}

	files, err := h.store.List(models.FileKindLog, limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleDeleteFile removes an archived file
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return storageError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}
