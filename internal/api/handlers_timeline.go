// handlers_timeline.go - Timeline rendering and export download handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/beaconbay/backend/internal/export"
	"github.com/beaconbay/backend/internal/report"
	"github.com/beaconbay/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// MIMEImageSVG is the content type of SVG responses.
const MIMEImageSVG = "image/svg+xml"

// TimelineHandlerImpl implements the TimelineHandler interface
type TimelineHandlerImpl struct {
	sessions SessionManager
	pdf      *report.PDFExporter
}

// NewTimelineHandler creates a new timeline handler instance
func NewTimelineHandler(sessions SessionManager, pdf *report.PDFExporter) TimelineHandler {
	if pdf == nil {
		pdf = report.NewPDFExporter(report.DefaultTitle)
	}
	return &TimelineHandlerImpl{
		sessions: sessions,
		pdf:      pdf,
	}
}

// HandleTimeline renders the top-N devices and prepares a fresh export
func (h *TimelineHandlerImpl) HandleTimeline(c echo.Context) error {
	id := c.Param("id")

	var req session.TimelineRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	result, err := h.sessions.Timeline(c.Request().Context(), id, req)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleExportData downloads graph_analysis_data.json
func (h *TimelineHandlerImpl) HandleExportData(c echo.Context) error {
	bundle, err := h.bundle(c)
	if err != nil {
		return err
	}
	attachment(c, export.DataFileName)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, bundle.Data)
}

// HandleExportImage downloads timeline_graph.svg
func (h *TimelineHandlerImpl) HandleExportImage(c echo.Context) error {
	bundle, err := h.bundle(c)
	if err != nil {
		return err
	}
	attachment(c, export.ImageFileName)
	return c.Blob(http.StatusOK, MIMEImageSVG, bundle.Image)
}

// HandleExportPDF downloads timeline_graph.pdf
func (h *TimelineHandlerImpl) HandleExportPDF(c echo.Context) error {
	bundle, err := h.bundle(c)
	if err != nil {
		return err
	}
	data, err := h.pdf.Export(bundle.Chart)
	if err != nil {
		return NewInternalError("failed to render PDF", err)
	}
	attachment(c, export.PDFFileName)
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func (h *TimelineHandlerImpl) bundle(c echo.Context) (*export.Bundle, error) {
	id := c.Param("id")
	bundle, err := h.sessions.Export(id, c.Param("exportId"))
	if err != nil {
		return nil, sessionError(err, id)
	}
	return bundle, nil
}

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}
