// Package export packages a rendered timeline into downloadable artifacts:
// the series data as JSON and the chart as a standalone SVG document.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/chart/svg"
	"github.com/beaconbay/backend/internal/models"
	"github.com/google/uuid"
)

// Download file names.
const (
	DataFileName  = "graph_analysis_data.json"
	ImageFileName = "timeline_graph.svg"
	PDFFileName   = "timeline_graph.pdf"
)

// Document is the JSON export layout.
type Document struct {
	ScanInfo models.ScanInfo      `json:"scanInfo"`
	Devices  []models.GraphSeries `json:"devices"`
}

// Bundle is one set of export artifacts.
type Bundle struct {
	ID        string
	CreatedAt time.Time
	Chart     *chart.Chart
	Data      []byte
	Image     []byte
}

// Package builds a Bundle from a rendered timeline and the series it was drawn from.
func Package(c *chart.Chart, series []models.GraphSeries, scanInfo models.ScanInfo, theme svg.Theme) (*Bundle, error) {
	if c == nil {
		return nil, fmt.Errorf("nothing to export: no chart")
	}

	data, err := Marshal(Document{ScanInfo: scanInfo, Devices: series})
	if err != nil {
		return nil, err
	}
	image, err := svg.Standalone(c, theme)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Chart:     c,
		Data:      data,
		Image:     image,
	}, nil
}

// Marshal writes doc as two-space indented JSON without HTML escaping.
func Marshal(doc Document) ([]byte, error) {
	if doc.Devices == nil {
		doc.Devices = []models.GraphSeries{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode export data: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal reads a document produced by Marshal.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode export data: %w", err)
	}
	return &doc, nil
}
