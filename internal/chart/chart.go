// Package chart computes geometry for the device sparkline and the
// multi-device timeline. A Chart is a plain descriptor with coordinates in
// viewport units; turning it into markup is left to the svg and report
// packages.
package chart

import (
	"strconv"
	"time"
	"unicode/utf8"
)

// Sparkline layout.
const (
	SparkWidth   = 300.0
	SparkHeight  = 100.0
	SparkPadding = 20.0
	SparkBuffer  = 5.0
)

// Timeline layout.
const (
	TimelineWidth       = 800.0
	TimelineHeight      = 400.0
	TimelinePadding     = 50.0
	TimelineLegendWidth = 200.0
	TimelineBuffer      = 10.0
)

// RSSI seeds for the vertical frame. Buffered by SparkBuffer or TimelineBuffer
// they are also its limits, so readings beyond them plot past the frame edge.
const (
	StrongSeed = -40.0
	WeakSeed   = -100.0
)

// Gridlines are the reference levels drawn across the timeline.
var Gridlines = []float64{-70, -85}

// Palette is cycled over timeline series.
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// Legend label limits, in characters.
const (
	LegendMaxLen   = 20
	LegendKeepLen  = 18
	legendEllipsis = "..."
)

// Color returns the palette color for the i-th series.
func Color(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// TruncateLegend shortens names longer than LegendMaxLen characters.
func TruncateLegend(name string) string {
	if utf8.RuneCountInString(name) <= LegendMaxLen {
		return name
	}
	runes := []rune(name)
	return string(runes[:LegendKeepLen]) + legendEllipsis
}

// Kind identifies the chart type.
type Kind string

const (
	KindSparkline Kind = "sparkline"
	KindTimeline  Kind = "timeline"
)

// Outcome reports whether a chart could be drawn.
type Outcome string

const (
	OutcomeRendered         Outcome = "rendered"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomeEmptySelection   Outcome = "empty_selection"
)

// Notice is the user facing message for outcomes that produce no chart.
func (o Outcome) Notice() string {
	switch o {
	case OutcomeInsufficientData:
		return "not enough data for an RSSI chart (at least 2 points required)"
	case OutcomeEmptySelection:
		return "no devices selected for the timeline"
	default:
		return ""
	}
}

// Point is a position in viewport units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight line such as an axis or a gridline.
type Segment struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Class string  `json:"class"`
}

// Text is a positioned label.
type Text struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Content  string  `json:"content"`
	Anchor   string  `json:"anchor,omitempty"`
	Baseline string  `json:"baseline,omitempty"`
	Class    string  `json:"class"`
}

// Path is one data line.
type Path struct {
	SeriesID string  `json:"seriesId,omitempty"`
	Points   []Point `json:"points"`
	Color    string  `json:"color,omitempty"`
	Class    string  `json:"class"`
}

// LegendEntry is a color swatch and label. The swatch is drawn at (X, Y).
type LegendEntry struct {
	SeriesID string  `json:"seriesId"`
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Legend swatch geometry.
const (
	SwatchWidth  = 15.0
	SwatchHeight = 10.0
	legendStep   = 20.0
	legendInset  = 15.0
	legendTextDX = 20.0
	legendTextDY = 9.0
)

// LabelPosition returns where the legend text sits relative to its swatch.
func (e LegendEntry) LabelPosition() Point {
	return Point{X: e.X + legendTextDX, Y: e.Y + legendTextDY}
}

// Bounds is the data frame a chart was scaled to.
type Bounds struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Strong float64   `json:"strong"`
	Weak   float64   `json:"weak"`
}

// Chart is a renderable descriptor.
type Chart struct {
	Kind       Kind          `json:"kind"`
	Class      string        `json:"class"`
	ViewWidth  float64       `json:"viewWidth"`
	ViewHeight float64       `json:"viewHeight"`
	Bounds     Bounds        `json:"bounds"`
	Axes       []Segment     `json:"axes"`
	Labels     []Text        `json:"labels"`
	Paths      []Path        `json:"paths"`
	Legend     []LegendEntry `json:"legend,omitempty"`
}

// Renderer builds charts. Time labels are formatted in Location.
type Renderer struct {
	Location *time.Location
}

// NewRenderer returns a Renderer for loc; nil means UTC.
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{Location: loc}
}

func (r *Renderer) clock(t time.Time) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04:05")
}

// scale maps data into a plot rectangle.
type scale struct {
	padding  float64
	width    float64
	height   float64
	start    time.Time
	span     float64
	strong   float64
	rssiSpan float64
}

func newScale(padding, width, height float64, b Bounds) scale {
	span := float64(b.End.Sub(b.Start))
	if span == 0 {
		span = 1
	}
	rssiSpan := b.Strong - b.Weak
	if rssiSpan == 0 {
		rssiSpan = 1
	}
	return scale{
		padding:  padding,
		width:    width,
		height:   height,
		start:    b.Start,
		span:     span,
		strong:   b.Strong,
		rssiSpan: rssiSpan,
	}
}

func (s scale) x(t time.Time) float64 {
	return s.padding + float64(t.Sub(s.start))/s.span*s.width
}

// y places stronger signals higher.
func (s scale) y(rssi float64) float64 {
	return s.padding + (s.strong-rssi)/s.rssiSpan*s.height
}

// rssiBounds pads the observed range by buffer and clamps it to the seeds
// padded by the same buffer.
func rssiBounds(strongest, weakest, buffer float64) (strong, weak float64) {
	strong = min(StrongSeed+buffer, max(StrongSeed, strongest)+buffer)
	weak = max(WeakSeed-buffer, min(WeakSeed, weakest)-buffer)
	return strong, weak
}

func formatDBm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " dBm"
}
