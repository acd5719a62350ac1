package chart

import (
	"time"

	"github.com/beaconbay/backend/internal/models"
)

type sample struct {
	t    time.Time
	rssi float64
}

func samples(history []models.RssiEvent) []sample {
	out := make([]sample, 0, len(history))
	for _, ev := range history {
		if !ev.Numeric {
			continue
		}
		t, err := ev.Time()
		if err != nil {
			continue
		}
		out = append(out, sample{t: t, rssi: ev.R})
	}
	return out
}

// Sparkline draws one device's RSSI history in the order it was recorded.
// The time axis is scaled to the data; the RSSI frame is fixed at -35..-105 dBm.
func (r *Renderer) Sparkline(history []models.RssiEvent) (*Chart, Outcome) {
	pts := samples(history)
	if len(pts) < 2 {
		return nil, OutcomeInsufficientData
	}

	b := Bounds{Start: pts[0].t, End: pts[0].t}
	strongest, weakest := pts[0].rssi, pts[0].rssi
	for _, p := range pts[1:] {
		if p.t.Before(b.Start) {
			b.Start = p.t
		}
		if p.t.After(b.End) {
			b.End = p.t
		}
		strongest = max(strongest, p.rssi)
		weakest = min(weakest, p.rssi)
	}
	b.Strong, b.Weak = rssiBounds(strongest, weakest, SparkBuffer)

	s := newScale(SparkPadding, SparkWidth, SparkHeight, b)
	line := Path{Class: "spark-line", Points: make([]Point, len(pts))}
	for i, p := range pts {
		line.Points[i] = Point{X: s.x(p.t), Y: s.y(p.rssi)}
	}

	const pad, w, h = SparkPadding, SparkWidth, SparkHeight
	viewHeight := h + pad*2
	return &Chart{
		Kind:       KindSparkline,
		Class:      "rssi-sparkline",
		ViewWidth:  w + pad*2,
		ViewHeight: viewHeight,
		Bounds:     b,
		Axes: []Segment{
			{X1: pad, Y1: pad, X2: pad, Y2: pad + h, Class: "spark-axis"},
			{X1: pad, Y1: pad + h, X2: pad + w, Y2: pad + h, Class: "spark-axis"},
		},
		Labels: []Text{
			{X: 5, Y: pad + 5, Content: formatDBm(b.Strong), Baseline: "hanging", Class: "spark-text"},
			{X: 5, Y: pad + h, Content: formatDBm(b.Weak), Baseline: "baseline", Class: "spark-text"},
			{X: pad, Y: viewHeight - 5, Content: r.clock(b.Start), Anchor: "start", Class: "spark-text"},
			{X: pad + w, Y: viewHeight - 5, Content: r.clock(b.End), Anchor: "end", Class: "spark-text"},
		},
		Paths: []Path{line},
	}, OutcomeRendered
}
