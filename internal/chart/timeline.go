package chart

import (
	"slices"
	"strconv"

	"github.com/beaconbay/backend/internal/models"
)

// Timeline draws several devices against the scan window.
// The time axis is the window itself, so events recorded outside it land
// outside the plot area. The RSSI frame is fixed at -30..-110 dBm; outliers
// plot past its edges. Series with fewer than two points get a legend entry
// but no line.
func (r *Renderer) Timeline(series []models.GraphSeries, window models.TimeRange) (*Chart, Outcome) {
	if len(series) == 0 {
		return nil, OutcomeEmptySelection
	}

	perSeries := make([][]sample, len(series))
	strongest, weakest := StrongSeed, WeakSeed
	for i, gs := range series {
		pts := samples(gs.History)
		slices.SortStableFunc(pts, func(a, b sample) int {
			return a.t.Compare(b.t)
		})
		for _, p := range pts {
			strongest = max(strongest, p.rssi)
			weakest = min(weakest, p.rssi)
		}
		perSeries[i] = pts
	}

	b := Bounds{Start: window.Start, End: window.End}
	b.Strong, b.Weak = rssiBounds(strongest, weakest, TimelineBuffer)
	s := newScale(TimelinePadding, TimelineWidth, TimelineHeight, b)

	const pad, w, h = TimelinePadding, TimelineWidth, TimelineHeight
	viewHeight := h + pad*2

	c := &Chart{
		Kind:       KindTimeline,
		Class:      "timeline-graph",
		ViewWidth:  w + pad*2 + TimelineLegendWidth,
		ViewHeight: viewHeight,
		Bounds:     b,
		Axes: []Segment{
			{X1: pad, Y1: pad, X2: pad, Y2: pad + h, Class: "timeline-axis solid"},
		},
		Labels: []Text{
			{X: pad - 10, Y: pad + 5, Content: formatDBm(b.Strong), Anchor: "end", Class: "timeline-text"},
			{X: pad - 10, Y: pad + h, Content: formatDBm(b.Weak), Anchor: "end", Class: "timeline-text"},
		},
		Paths:  make([]Path, 0, len(series)),
		Legend: make([]LegendEntry, 0, len(series)),
	}

	for _, level := range Gridlines {
		y := s.y(level)
		c.Axes = append(c.Axes, Segment{X1: pad, Y1: y, X2: pad + w, Y2: y, Class: "timeline-axis"})
		c.Labels = append(c.Labels, Text{
			X: pad - 10, Y: y + 3, Content: formatLevel(level), Anchor: "end", Class: "timeline-text",
		})
	}

	c.Axes = append(c.Axes, Segment{X1: pad, Y1: pad + h, X2: pad + w, Y2: pad + h, Class: "timeline-axis solid"})
	c.Labels = append(c.Labels,
		Text{X: pad, Y: viewHeight - 15, Content: r.clock(b.Start), Anchor: "start", Class: "timeline-text"},
		Text{X: pad + w, Y: viewHeight - 15, Content: r.clock(b.End), Anchor: "end", Class: "timeline-text"},
	)

	for i, gs := range series {
		color := gs.Color
		if color == "" {
			color = Color(i)
		}

		if pts := perSeries[i]; len(pts) >= 2 {
			line := Path{SeriesID: gs.ID, Color: color, Class: "timeline-line", Points: make([]Point, len(pts))}
			for j, p := range pts {
				line.Points[j] = Point{X: s.x(p.t), Y: s.y(p.rssi)}
			}
			c.Paths = append(c.Paths, line)
		}

		c.Legend = append(c.Legend, LegendEntry{
			SeriesID: gs.ID,
			Name:     gs.Name,
			Label:    TruncateLegend(gs.Name),
			Color:    color,
			X:        w + pad + legendInset,
			Y:        pad + float64(i)*legendStep,
		})
	}

	return c, OutcomeRendered
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
