// handlers_mapping.go - Device-to-location mapping handlers
package api

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/beaconbay/backend/internal/mapping"
	"github.com/beaconbay/backend/internal/metrics"
	"github.com/beaconbay/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// MappingFileBase names downloaded mapping documents.
const MappingFileBase = "device_mapping"

// maxMappingSize bounds imported mapping documents.
const maxMappingSize = 4 << 20

// MappingResponse is the mapping plus its entry count.
type MappingResponse struct {
	Labels models.Mapping `json:"labels"`
	Count  int            `json:"count"`
}

// MappingHandlerImpl implements the MappingHandler interface
type MappingHandlerImpl struct {
	store mapping.Store
	log   *slog.Logger
}

// NewMappingHandler creates a new mapping handler instance
func NewMappingHandler(store mapping.Store, log *slog.Logger) MappingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MappingHandlerImpl{
		store: store,
		log:   log.With("component", "mapping"),
	}
}

// HandleGetMapping returns the current mapping
func (h *MappingHandlerImpl) HandleGetMapping(c echo.Context) error {
	labels, err := h.store.Get(c.Request().Context())
	if err != nil {
		return h.unavailable("get", err)
	}
	if labels == nil {
		labels = models.Mapping{}
	}
	return c.JSON(http.StatusOK, MappingResponse{Labels: labels, Count: len(labels)})
}

// HandleSetMapping replaces the mapping with the request body
func (h *MappingHandlerImpl) HandleSetMapping(c echo.Context) error {
	var labels models.Mapping
	if err := c.Echo().JSONSerializer.Deserialize(c, &labels); err != nil {
		return NewBadRequestError("mapping must be a JSON object of device id to label", err)
	}
	return h.save(c, labels)
}

// HandleClearMapping removes every label
func (h *MappingHandlerImpl) HandleClearMapping(c echo.Context) error {
	if err := h.store.Clear(c.Request().Context()); err != nil {
		return h.unavailable("clear", err)
	}
	h.log.Info("mapping cleared")
	return c.NoContent(http.StatusNoContent)
}

// HandleExportMapping downloads the mapping as JSON or YAML
func (h *MappingHandlerImpl) HandleExportMapping(c echo.Context) error {
	format := mapping.FormatJSON
	if raw := c.QueryParam("format"); raw != "" {
		f, err := mapping.ParseFormat(raw)
		if err != nil {
			return NewBadRequestError("unsupported mapping format", err)
		}
		format = f
	}

	labels, err := h.store.Get(c.Request().Context())
	if err != nil {
		return h.unavailable("get", err)
	}
	data, err := mapping.Encode(labels, format)
	if err != nil {
		return NewInternalError("failed to encode mapping", err)
	}
	attachment(c, MappingFileBase+"."+format.Extension())
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

// HandleImportMapping replaces the mapping with an uploaded JSON or YAML
// document. The format comes from ?format=, the file extension, or is
// detected from the content.
func (h *MappingHandlerImpl) HandleImportMapping(c echo.Context) error {
	var format mapping.Format
	if raw := c.QueryParam("format"); raw != "" {
		f, err := mapping.ParseFormat(raw)
		if err != nil {
			return NewBadRequestError("unsupported mapping format", err)
		}
		format = f
	}

	var data []byte
	mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if mediaType == echo.MIMEMultipartForm {
		file, err := c.FormFile("file")
		if err != nil {
			return NewBadRequestError("no file provided", err)
		}
		if ext := strings.TrimPrefix(filepath.Ext(file.Filename), "."); format == "" && ext != "" {
			if f, err := mapping.ParseFormat(ext); err == nil {
				format = f
			}
		}
		src, err := file.Open()
		if err != nil {
			return NewInternalError("failed to open uploaded file", err)
		}
		defer src.Close()
		if data, err = readLimited(src, maxMappingSize); err != nil {
			return err
		}
	} else {
		var err error
		if data, err = readLimited(c.Request().Body, maxMappingSize); err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return NewValidationError("file")
	}

	labels, err := mapping.Decode(data, format)
	if err != nil {
		return NewBadRequestError("invalid mapping document", err)
	}
	return h.save(c, labels)
}

func (h *MappingHandlerImpl) save(c echo.Context, labels models.Mapping) error {
	labels = mapping.Normalize(labels)
	if err := h.store.Set(c.Request().Context(), labels); err != nil {
		return h.unavailable("set", err)
	}
	h.log.Info("mapping saved", "entries", len(labels))
	return c.JSON(http.StatusOK, MappingResponse{Labels: labels, Count: len(labels)})
}

func (h *MappingHandlerImpl) unavailable(op string, err error) error {
	metrics.MappingErrors.WithLabelValues(op).Inc()
	h.log.Warn("mapping store failed", "op", op, "error", err)
	return NewMappingUnavailableError(fmt.Errorf("%s: %w", op, err))
}
