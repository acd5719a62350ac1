// Package report renders chart descriptors to PDF.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beaconbay/backend/internal/chart"
	"github.com/jung-kurt/gofpdf"
)

// DefaultTitle heads exported timeline pages.
const DefaultTitle = "BeaconBay RSSI timeline"

const (
	pageMargin  = 10.0
	headerSpace = 14.0
)

// PDFExporter writes timeline charts as a single landscape A4 page.
type PDFExporter struct {
	Title string
	Now   func() time.Time
}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter(title string) *PDFExporter {
	return &PDFExporter{Title: title, Now: time.Now}
}

// TimelinePDF renders c to PDF bytes.
func TimelinePDF(c *chart.Chart) ([]byte, error) {
	return NewPDFExporter(DefaultTitle).Export(c)
}

// Export renders c to PDF bytes.
func (e *PDFExporter) Export(c *chart.Chart) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nothing to render: no chart")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCreator("BeaconBay", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	e.addHeader(pdf, tr)

	pageW, pageH := pdf.GetPageSize()
	availW := pageW - 2*pageMargin
	availH := pageH - 2*pageMargin - headerSpace
	k := min(availW/c.ViewWidth, availH/c.ViewHeight)
	p := plotter{pdf: pdf, k: k, ox: pageMargin, oy: pageMargin + headerSpace, tr: tr}

	for _, a := range c.Axes {
		p.segment(a)
	}
	pdf.SetDashPattern([]float64{}, 0)
	for _, path := range c.Paths {
		p.path(path)
	}
	for _, l := range c.Labels {
		p.text(l)
	}
	for _, entry := range c.Legend {
		p.legend(entry)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, tr func(string) string) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	pdf.SetXY(pageMargin, pageMargin)
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 7, tr(e.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetX(pageMargin)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
}

type plotter struct {
	pdf    *gofpdf.Fpdf
	k      float64
	ox, oy float64
	tr     func(string) string
}

func (p plotter) x(v float64) float64 { return p.ox + v*p.k }
func (p plotter) y(v float64) float64 { return p.oy + v*p.k }

func (p plotter) segment(s chart.Segment) {
	if strings.Contains(s.Class, "solid") || strings.HasPrefix(s.Class, "spark") {
		p.pdf.SetDashPattern([]float64{}, 0)
		p.pdf.SetDrawColor(34, 34, 34)
	} else {
		p.pdf.SetDashPattern([]float64{0.7, 0.7}, 0)
		p.pdf.SetDrawColor(180, 180, 180)
	}
	p.pdf.SetLineWidth(0.2)
	p.pdf.Line(p.x(s.X1), p.y(s.Y1), p.x(s.X2), p.y(s.Y2))
}

func (p plotter) path(path chart.Path) {
	r, g, b := rgb(path.Color, 78, 121, 167)
	p.pdf.SetDrawColor(r, g, b)
	p.pdf.SetLineWidth(0.5)
	for i := 1; i < len(path.Points); i++ {
		a, c := path.Points[i-1], path.Points[i]
		p.pdf.Line(p.x(a.X), p.y(a.Y), p.x(c.X), p.y(c.Y))
	}
}

func (p plotter) text(t chart.Text) {
	p.pdf.SetFont("Arial", "", 7)
	p.pdf.SetTextColor(51, 51, 51)
	s := p.tr(t.Content)
	x := p.x(t.X)
	switch t.Anchor {
	case "end":
		x -= p.pdf.GetStringWidth(s)
	case "middle":
		x -= p.pdf.GetStringWidth(s) / 2
	}
	y := p.y(t.Y)
	if t.Baseline == "hanging" {
		_, fontH := p.pdf.GetFontSize()
		y += fontH
	}
	p.pdf.Text(x, y, s)
}

func (p plotter) legend(e chart.LegendEntry) {
	r, g, b := rgb(e.Color, 78, 121, 167)
	p.pdf.SetFillColor(r, g, b)
	p.pdf.Rect(p.x(e.X), p.y(e.Y), chart.SwatchWidth*p.k, chart.SwatchHeight*p.k, "F")
	pos := e.LabelPosition()
	p.text(chart.Text{X: pos.X, Y: pos.Y, Content: e.Label})
}

// rgb parses "#rrggbb", returning the fallback for anything else.
func rgb(hex string, fr, fg, fb int) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return fr, fg, fb
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fr, fg, fb
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
