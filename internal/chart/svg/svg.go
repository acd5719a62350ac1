// Package svg turns chart descriptors into SVG markup.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beaconbay/backend/internal/chart"
)

// Namespace is the SVG XML namespace written into standalone documents.
const Namespace = "http://www.w3.org/2000/svg"

// Theme holds the concrete colors substituted for the CSS classes used by
// live markup. Standalone files have no page stylesheet to inherit from.
type Theme struct {
	Text       string `xml:"Text"`
	Border     string `xml:"Border"`
	Foreground string `xml:"Foreground"`
	Accent     string `xml:"Accent"`
	FontFamily string `xml:"FontFamily"`
}

// DefaultTheme is the light theme.
func DefaultTheme() Theme {
	return Theme{
		Text:       "#333333",
		Border:     "#cccccc",
		Foreground: "#222222",
		Accent:     "#4e79a7",
		FontFamily: "-apple-system, sans-serif",
	}
}

// withDefaults fills empty fields from DefaultTheme.
func (t Theme) withDefaults() Theme {
	d := DefaultTheme()
	if t.Text == "" {
		t.Text = d.Text
	}
	if t.Border == "" {
		t.Border = d.Border
	}
	if t.Foreground == "" {
		t.Foreground = d.Foreground
	}
	if t.Accent == "" {
		t.Accent = d.Accent
	}
	if t.FontFamily == "" {
		t.FontFamily = d.FontFamily
	}
	return t
}

// CSS returns the stylesheet embedded in standalone documents.
func (t Theme) CSS() string {
	t = t.withDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, ".timeline-line { fill: none; stroke-width: 2; opacity: 0.8; }\n")
	fmt.Fprintf(&b, ".timeline-text { font-family: %s; font-size: 10px; fill: %s; }\n", t.FontFamily, t.Text)
	fmt.Fprintf(&b, ".timeline-axis { stroke: %s; stroke-width: 1; stroke-dasharray: 2 2; }\n", t.Border)
	fmt.Fprintf(&b, ".timeline-axis.solid { stroke-dasharray: none; stroke: %s; }\n", t.Foreground)
	fmt.Fprintf(&b, ".spark-line { fill: none; stroke: %s; stroke-width: 1.5; }\n", t.Accent)
	fmt.Fprintf(&b, ".spark-text { font-family: %s; font-size: 9px; fill: %s; }\n", t.FontFamily, t.Text)
	fmt.Fprintf(&b, ".spark-axis { stroke: %s; stroke-width: 1; }\n", t.Border)
	return b.String()
}

type document struct {
	XMLName  xml.Name `xml:"svg"`
	Xmlns    string   `xml:"xmlns,attr,omitempty"`
	Class    string   `xml:"class,attr,omitempty"`
	ViewBox  string   `xml:"viewBox,attr"`
	Aspect   string   `xml:"preserveAspectRatio,attr"`
	Style    *style   `xml:"style,omitempty"`
	Children []any
}

type style struct {
	CSS string `xml:",cdata"`
}

type line struct {
	XMLName xml.Name `xml:"line"`
	Class   string   `xml:"class,attr"`
	X1      string   `xml:"x1,attr"`
	Y1      string   `xml:"y1,attr"`
	X2      string   `xml:"x2,attr"`
	Y2      string   `xml:"y2,attr"`
}

type text struct {
	XMLName  xml.Name `xml:"text"`
	Class    string   `xml:"class,attr"`
	X        string   `xml:"x,attr"`
	Y        string   `xml:"y,attr"`
	Anchor   string   `xml:"text-anchor,attr,omitempty"`
	Baseline string   `xml:"alignment-baseline,attr,omitempty"`
	Content  string   `xml:",chardata"`
}

type path struct {
	XMLName xml.Name `xml:"path"`
	D       string   `xml:"d,attr"`
	Stroke  string   `xml:"stroke,attr,omitempty"`
	Class   string   `xml:"class,attr"`
}

type rect struct {
	XMLName xml.Name `xml:"rect"`
	X       string   `xml:"x,attr"`
	Y       string   `xml:"y,attr"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	Fill    string   `xml:"fill,attr"`
}

type title struct {
	XMLName xml.Name `xml:"title"`
	Content string   `xml:",chardata"`
}

type legendText struct {
	XMLName xml.Name `xml:"text"`
	Class   string   `xml:"class,attr"`
	X       string   `xml:"x,attr"`
	Y       string   `xml:"y,attr"`
	Title   *title
	Content string `xml:",chardata"`
}

type group struct {
	XMLName  xml.Name `xml:"g"`
	Class    string   `xml:"class,attr"`
	Children []any
}

// Render returns the live markup for c, styled by the page's CSS classes.
func Render(c *chart.Chart) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nil chart")
	}
	return encode(build(c), false)
}

// Standalone returns a complete SVG document for c with the theme's colors
// embedded, suitable for saving to disk.
func Standalone(c *chart.Chart, theme Theme) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nil chart")
	}
	doc := build(c)
	doc.Xmlns = Namespace
	doc.Style = &style{CSS: "\n" + theme.CSS()}
	return encode(doc, true)
}

func build(c *chart.Chart) *document {
	doc := &document{
		Class:   c.Class,
		ViewBox: "0 0 " + num(c.ViewWidth) + " " + num(c.ViewHeight),
		Aspect:  "xMidYMid meet",
	}

	for _, l := range c.Labels {
		doc.Children = append(doc.Children, text{
			Class:    l.Class,
			X:        num(l.X),
			Y:        num(l.Y),
			Anchor:   l.Anchor,
			Baseline: l.Baseline,
			Content:  l.Content,
		})
	}
	for _, a := range c.Axes {
		doc.Children = append(doc.Children, line{
			Class: a.Class,
			X1:    num(a.X1),
			Y1:    num(a.Y1),
			X2:    num(a.X2),
			Y2:    num(a.Y2),
		})
	}
	for _, p := range c.Paths {
		doc.Children = append(doc.Children, path{D: pathData(p.Points), Stroke: p.Color, Class: p.Class})
	}

	if len(c.Legend) > 0 {
		g := group{Class: "timeline-legend"}
		for _, e := range c.Legend {
			pos := e.LabelPosition()
			g.Children = append(g.Children,
				rect{
					X:      num(e.X),
					Y:      num(e.Y),
					Width:  num(chart.SwatchWidth),
					Height: num(chart.SwatchHeight),
					Fill:   e.Color,
				},
				legendTextFor(e, pos),
			)
		}
		doc.Children = append(doc.Children, g)
	}
	return doc
}

func legendTextFor(e chart.LegendEntry, pos chart.Point) legendText {
	t := legendText{
		Class:   "timeline-text",
		X:       num(pos.X),
		Y:       num(pos.Y),
		Content: e.Label,
	}
	if e.Label != e.Name {
		t.Title = &title{Content: e.Name}
	}
	return t
}

func encode(doc *document, header bool) ([]byte, error) {
	var buf bytes.Buffer
	if header {
		buf.WriteString(xml.Header)
	}
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode svg: %w", err)
	}
	if header {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func pathData(pts []chart.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X))
		b.WriteByte(' ')
		b.WriteString(num(p.Y))
	}
	return b.String()
}

// num rounds to two decimals and drops trailing zeros.
func num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
