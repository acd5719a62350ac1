// handlers_devices.go - Ranked device listing and device detail handlers
package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/chart/svg"
	"github.com/beaconbay/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of msgpack responses.
const MIMEApplicationMsgpack = "application/msgpack"

// DeviceHandlerImpl implements the DeviceHandler interface
type DeviceHandlerImpl struct {
	sessions SessionManager
	theme    svg.Theme
}

// NewDeviceHandler creates a new device handler instance
func NewDeviceHandler(sessions SessionManager, theme svg.Theme) DeviceHandler {
	return &DeviceHandlerImpl{
		sessions: sessions,
		theme:    theme,
	}
}

// HandleGetDevices returns one page of device cards.
// format=msgpack selects a msgpack body carrying the same payload.
func (h *DeviceHandlerImpl) HandleGetDevices(c echo.Context) error {
	id := c.Param("id")
	page, err := pageParam(c)
	if err != nil {
		return err
	}
	p, err := h.sessions.Page(c.Request().Context(), id, page)
	if err != nil {
		return sessionError(err, id)
	}

	switch c.QueryParam("format") {
	case "", "json":
		return c.JSON(http.StatusOK, p)
	case "msgpack":
		return writeMsgpack(c, p)
	default:
		return NewValidationError("format")
	}
}

func writeMsgpack(c echo.Context, v interface{}) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, MIMEApplicationMsgpack, buf.Bytes())
}

// HandleGetDevice returns advertisements and the sparkline descriptor
func (h *DeviceHandlerImpl) HandleGetDevice(c echo.Context) error {
	detail, err := h.device(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// HandleGetSparkline renders the device's sparkline as a standalone SVG.
// When there is nothing to draw the notice is returned as JSON instead.
func (h *DeviceHandlerImpl) HandleGetSparkline(c echo.Context) error {
	detail, err := h.device(c)
	if err != nil {
		return err
	}
	if detail.Outcome != chart.OutcomeRendered {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"outcome": detail.Outcome,
			"notice":  detail.Notice,
		})
	}
	data, err := svg.Standalone(detail.Sparkline, h.theme)
	if err != nil {
		return NewInternalError("failed to render sparkline", err)
	}
	return c.Blob(http.StatusOK, MIMEImageSVG, data)
}

func (h *DeviceHandlerImpl) device(c echo.Context) (*session.DeviceDetail, error) {
	id := c.Param("id")
	deviceID, err := url.PathUnescape(c.Param("deviceId"))
	if err != nil || deviceID == "" {
		return nil, NewValidationError("deviceId")
	}
	detail, err := h.sessions.Device(c.Request().Context(), id, deviceID)
	if errors.Is(err, session.ErrDeviceNotFound) {
		return nil, NewNotFoundError("device", deviceID)
	}
	if err != nil {
		return nil, sessionError(err, id)
	}
	return detail, nil
}

func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError("page")
	}
	return page, nil
}
