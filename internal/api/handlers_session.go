// handlers_session.go - Session lifecycle, log loading and floor plan handlers
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/beaconbay/backend/internal/logging"
	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/parser"
	"github.com/beaconbay/backend/internal/session"
	"github.com/beaconbay/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// DefaultLogName is used for raw-body uploads without a name parameter.
const DefaultLogName = "scan_log.json"

// Limits bounds what clients may upload.
type Limits struct {
	MaxLogSize   int64
	MaxImageSize int64
	// AllowImage reports whether a floor-plan content type is accepted.
	AllowImage func(contentType string) bool
}

func (l Limits) imageAllowed(ct string) bool {
	if l.AllowImage != nil {
		return l.AllowImage(ct)
	}
	return strings.HasPrefix(ct, "image/")
}

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	store    storage.Store
	sessions SessionManager
	limits   Limits
	log      *slog.Logger
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(store storage.Store, sessions SessionManager, limits Limits, log *slog.Logger) SessionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionHandlerImpl{
		store:    store,
		sessions: sessions,
		limits:   limits,
		log:      log.With("component", "api"),
	}
}

// HandleCreateSession starts an empty session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.sessions.Create())
}

// HandleGetSession returns the session summary
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, s)
}

// HandleDeleteSession drops a session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleLoadLog loads a scan log into the session. The log is taken from
// an archived upload (?fileId=), a multipart "file" field, or the raw body.
// New uploads are archived so they show up under recent files.
func (h *SessionHandlerImpl) HandleLoadLog(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.sessions.Get(id); !ok {
		return NewNotFoundError("session", id)
	}

	var src session.Source
	var raw []byte

	if fileID := c.QueryParam("fileId"); fileID != "" {
		info, err := h.store.Get(fileID)
		if err != nil {
			return storageError(err, fileID)
		}
		if raw, err = h.store.Read(fileID); err != nil {
			return storageError(err, fileID)
		}
		src = session.Source{FileName: info.Name, FileID: info.ID}
	} else {
		name, body, err := h.readUpload(c, h.limits.MaxLogSize)
		if err != nil {
			return err
		}
		if name == "" {
			name = DefaultLogName
		}
		raw = body
		src = session.Source{FileName: name}

		info, err := h.store.Save(name, models.FileKindLog, echo.MIMEApplicationJSON, bytes.NewReader(raw))
		if err != nil {
			// Archiving is a convenience; the log can still be analyzed.
			h.log.Warn("failed to archive scan log", "session", logging.ShortID(id), "error", err)
		} else {
			src.FileID = info.ID
		}
	}

	s, err := h.sessions.Load(id, src, raw)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, s)
}

// readUpload returns the uploaded file name (may be empty) and content.
func (h *SessionHandlerImpl) readUpload(c echo.Context, limit int64) (string, []byte, error) {
	req := c.Request()
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))

	if mediaType == echo.MIMEMultipartForm {
		file, err := c.FormFile("file")
		if err != nil {
			return "", nil, NewBadRequestError("no file provided", err)
		}
		if limit > 0 && file.Size > limit {
			return "", nil, NewPayloadTooLargeError(limit)
		}
		src, err := file.Open()
		if err != nil {
			return "", nil, NewInternalError("failed to open uploaded file", err)
		}
		defer src.Close()
		data, err := readLimited(src, limit)
		return filepath.Base(file.Filename), data, err
	}

	data, err := readLimited(req.Body, limit)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, NewValidationError("body")
	}
	return c.QueryParam("name"), data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, NewBadRequestError("failed to read upload", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, NewBadRequestError("failed to read upload", err)
	}
	if int64(len(data)) > limit {
		return nil, NewPayloadTooLargeError(limit)
	}
	return data, nil
}

// HandleUploadFloorPlan stores an image and attaches it to the session
func (h *SessionHandlerImpl) HandleUploadFloorPlan(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.sessions.Get(id); !ok {
		return NewNotFoundError("session", id)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	ct, _, _ := mime.ParseMediaType(file.Header.Get(echo.HeaderContentType))
	if !h.limits.imageAllowed(ct) {
		return NewUnsupportedMediaTypeError(ct)
	}
	if h.limits.MaxImageSize > 0 && file.Size > h.limits.MaxImageSize {
		return NewPayloadTooLargeError(h.limits.MaxImageSize)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, models.FileKindFloorPlan, ct, src)
	if err != nil {
		return NewInternalError("failed to save floor plan", err)
	}
	if err := h.sessions.SetFloorPlan(id, info.ID); err != nil {
		h.store.Delete(info.ID)
		return sessionError(err, id)
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleGetFloorPlan returns the session's floor plan image
func (h *SessionHandlerImpl) HandleGetFloorPlan(c echo.Context) error {
	id := c.Param("id")
	fileID, err := h.sessions.FloorPlan(id)
	if err != nil {
		return sessionError(err, id)
	}
	info, err := h.store.Get(fileID)
	if err != nil {
		return storageError(err, fileID)
	}
	data, err := h.store.Read(fileID)
	if err != nil {
		return storageError(err, fileID)
	}
	return c.Blob(http.StatusOK, info.ContentType, data)
}

// sessionError maps session manager errors onto API errors.
func sessionError(err error, id string) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return NewNotFoundError("session", id)
	case errors.Is(err, parser.ErrMalformedJSON):
		return NewMalformedLogError(err)
	case errors.Is(err, parser.ErrInvalidSchema):
		return NewInvalidSchemaError(err)
	case errors.Is(err, session.ErrNoLog):
		return NewConflictError("no scan log loaded")
	case errors.Is(err, session.ErrDeviceNotFound):
		return NewNotFoundError("device", id)
	case errors.Is(err, session.ErrTopNTooSmall):
		return NewBadRequestError(err.Error(), nil)
	case errors.Is(err, session.ErrInvalidWindow):
		return NewBadRequestError("scan window is not a valid time range", err)
	case errors.Is(err, session.ErrExportExpired):
		return NewGoneError("export has been replaced by a newer one")
	case errors.Is(err, session.ErrExportNotFound):
		return NewNotFoundError("export", id)
	case errors.Is(err, session.ErrNoFloorPlan):
		return NewNotFoundError("floor plan", id)
	case errors.Is(err, session.ErrLoadSuperseded):
		return NewConflictError("a newer log was loaded")
	default:
		return NewInternalError(fmt.Sprintf("session %s", logging.ShortID(id)), err)
	}
}

func storageError(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", id)
	}
	return NewInternalError("failed to read file", err)
}
