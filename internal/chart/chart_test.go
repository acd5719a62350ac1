package chart

import (
	"testing"
	"time"

	"github.com/beaconbay/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func at(offset time.Duration, r float64) models.RssiEvent {
	return models.NewRssiEvent(scanStart.Add(offset).Format(time.RFC3339), r)
}

func TestSparkline_TwoPoints(t *testing.T) {
	r := NewRenderer(time.UTC)
	c, outcome := r.Sparkline([]models.RssiEvent{at(0, -50), at(time.Minute, -80)})
	require.Equal(t, OutcomeRendered, outcome)
	require.NotNil(t, c)

	require.Len(t, c.Paths, 1)
	pts := c.Paths[0].Points
	require.Len(t, pts, 2)
	assert.Less(t, pts[0].Y, pts[1].Y, "stronger reading plots higher")
	assert.InDelta(t, SparkPadding, pts[0].X, 1e-9)
	assert.InDelta(t, SparkPadding+SparkWidth, pts[1].X, 1e-9)

	assert.Equal(t, -35.0, c.Bounds.Strong)
	assert.Equal(t, -105.0, c.Bounds.Weak)
	assert.Equal(t, 340.0, c.ViewWidth)
	assert.Equal(t, 140.0, c.ViewHeight)

	var contents []string
	for _, l := range c.Labels {
		contents = append(contents, l.Content)
	}
	assert.Equal(t, []string{"-35 dBm", "-105 dBm", "10:00:00", "10:01:00"}, contents)
}

func TestSparkline_OutliersKeepFrame(t *testing.T) {
	c, outcome := NewRenderer(nil).Sparkline([]models.RssiEvent{at(0, -20), at(time.Second, -120)})
	require.Equal(t, OutcomeRendered, outcome)
	assert.Equal(t, -35.0, c.Bounds.Strong)
	assert.Equal(t, -105.0, c.Bounds.Weak)

	pts := c.Paths[0].Points
	require.Len(t, pts, 2)
	assert.Less(t, pts[0].Y, SparkPadding, "-20 dBm plots above the frame")
	assert.Greater(t, pts[1].Y, SparkPadding+SparkHeight, "-120 dBm plots below the frame")
}

func TestSparkline_InsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		history []models.RssiEvent
	}{
		{name: "empty", history: nil},
		{name: "single point", history: []models.RssiEvent{at(0, -60)}},
		{name: "second point not numeric", history: []models.RssiEvent{at(0, -60), {T: scanStart.Format(time.RFC3339)}}},
		{name: "second point bad time", history: []models.RssiEvent{at(0, -60), models.NewRssiEvent("yesterday", -60)}},
	}
	r := NewRenderer(time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, outcome := r.Sparkline(tt.history)
			assert.Nil(t, c)
			assert.Equal(t, OutcomeInsufficientData, outcome)
			assert.NotEmpty(t, outcome.Notice())
		})
	}
}

func TestSparkline_KeepsRecordedOrder(t *testing.T) {
	c, _ := NewRenderer(time.UTC).Sparkline([]models.RssiEvent{at(time.Minute, -60), at(0, -60), at(30*time.Second, -60)})
	require.NotNil(t, c)
	pts := c.Paths[0].Points
	assert.InDelta(t, SparkPadding+SparkWidth, pts[0].X, 1e-9)
	assert.InDelta(t, SparkPadding, pts[1].X, 1e-9)
}

func TestSparkline_ZeroTimeRange(t *testing.T) {
	c, outcome := NewRenderer(time.UTC).Sparkline([]models.RssiEvent{at(0, -60), at(0, -70)})
	require.Equal(t, OutcomeRendered, outcome)
	for _, p := range c.Paths[0].Points {
		assert.InDelta(t, SparkPadding, p.X, 1e-9)
	}
}

func window() models.TimeRange {
	return models.TimeRange{Start: scanStart, End: scanStart.Add(10 * time.Minute)}
}

func TestTimeline_EmptySelection(t *testing.T) {
	c, outcome := NewRenderer(time.UTC).Timeline(nil, window())
	assert.Nil(t, c)
	assert.Equal(t, OutcomeEmptySelection, outcome)
}

func TestTimeline_EventBeforeScanStartMapsLeftOfPlot(t *testing.T) {
	series := []models.GraphSeries{{
		ID:      "A",
		Name:    "Beacon",
		History: []models.RssiEvent{at(-time.Second, -60), at(time.Minute, -61)},
	}}
	c, outcome := NewRenderer(time.UTC).Timeline(series, window())
	require.Equal(t, OutcomeRendered, outcome)
	require.Len(t, c.Paths, 1)
	assert.Less(t, c.Paths[0].Points[0].X, TimelinePadding)
}

func TestTimeline_Frame(t *testing.T) {
	series := []models.GraphSeries{
		{ID: "A", Name: "a", History: []models.RssiEvent{at(0, -60), at(time.Minute, -65)}},
	}
	c, _ := NewRenderer(time.UTC).Timeline(series, window())
	require.NotNil(t, c)

	assert.Equal(t, -30.0, c.Bounds.Strong)
	assert.Equal(t, -110.0, c.Bounds.Weak)
	assert.Equal(t, 1100.0, c.ViewWidth)
	assert.Equal(t, 500.0, c.ViewHeight)

	var grid []Segment
	for _, a := range c.Axes {
		if a.Class == "timeline-axis" {
			grid = append(grid, a)
		}
	}
	require.Len(t, grid, 2)
	// -70 sits 40 dBm below the top of an 80 dBm frame.
	assert.InDelta(t, TimelinePadding+TimelineHeight/2, grid[0].Y1, 1e-9)
	assert.Less(t, grid[0].Y1, grid[1].Y1)
}

func TestTimeline_OutliersKeepFrame(t *testing.T) {
	series := []models.GraphSeries{
		{ID: "A", Name: "a", History: []models.RssiEvent{at(0, -20), at(time.Minute, -120)}},
		{ID: "B", Name: "b", History: []models.RssiEvent{at(0, -60), at(time.Minute, -65)}},
	}
	c, outcome := NewRenderer(time.UTC).Timeline(series, window())
	require.Equal(t, OutcomeRendered, outcome)
	assert.Equal(t, -30.0, c.Bounds.Strong)
	assert.Equal(t, -110.0, c.Bounds.Weak)

	pts := c.Paths[0].Points
	assert.Less(t, pts[0].Y, TimelinePadding)
	assert.Greater(t, pts[1].Y, TimelinePadding+TimelineHeight)
}

func TestRSSIBounds(t *testing.T) {
	tests := []struct {
		name               string
		strongest, weakest float64
		buffer             float64
		wantStrong         float64
		wantWeak           float64
	}{
		{name: "sparkline inside seeds", strongest: -50, weakest: -80, buffer: SparkBuffer, wantStrong: -35, wantWeak: -105},
		{name: "sparkline outliers", strongest: -20, weakest: -120, buffer: SparkBuffer, wantStrong: -35, wantWeak: -105},
		{name: "timeline inside seeds", strongest: -60, weakest: -65, buffer: TimelineBuffer, wantStrong: -30, wantWeak: -110},
		{name: "timeline outliers", strongest: -5, weakest: -140, buffer: TimelineBuffer, wantStrong: -30, wantWeak: -110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strong, weak := rssiBounds(tt.strongest, tt.weakest, tt.buffer)
			assert.Equal(t, tt.wantStrong, strong)
			assert.Equal(t, tt.wantWeak, weak)
		})
	}
}

func TestTimeline_SeriesSortedAndColored(t *testing.T) {
	series := []models.GraphSeries{
		{ID: "A", Name: "a", History: []models.RssiEvent{at(2*time.Minute, -60), at(0, -60), at(time.Minute, -60)}},
		{ID: "B", Name: "b", Color: "#000000", History: []models.RssiEvent{at(0, -70), at(time.Minute, -75)}},
	}
	c, _ := NewRenderer(time.UTC).Timeline(series, window())
	require.NotNil(t, c)
	require.Len(t, c.Paths, 2)

	pts := c.Paths[0].Points
	for i := 1; i < len(pts); i++ {
		assert.Less(t, pts[i-1].X, pts[i].X)
	}
	assert.Equal(t, Palette[0], c.Paths[0].Color)
	assert.Equal(t, "#000000", c.Paths[1].Color)
}

func TestTimeline_LegendKeepsShortSeries(t *testing.T) {
	series := []models.GraphSeries{
		{ID: "A", Name: "ABCDEFGHIJKLMNOPQRSTU", History: []models.RssiEvent{at(0, -60)}},
		{ID: "B", Name: "short", History: []models.RssiEvent{at(0, -60), at(time.Minute, -62)}},
	}
	c, outcome := NewRenderer(time.UTC).Timeline(series, window())
	require.Equal(t, OutcomeRendered, outcome)

	assert.Len(t, c.Paths, 1)
	require.Len(t, c.Legend, 2)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQR...", c.Legend[0].Label)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTU", c.Legend[0].Name)
	assert.Equal(t, "short", c.Legend[1].Label)
	assert.Equal(t, c.Legend[0].Y+20, c.Legend[1].Y)
}

func TestTruncateLegend(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"exactly twenty chars", "exactly twenty chars"},
		{"twenty-one characters", "twenty-one charact..."},
		{"äöüäöüäöüäöüäöüäöüäöü", "äöüäöüäöüäöüäöüäöü..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateLegend(tt.in))
	}
}

func TestColorCycles(t *testing.T) {
	assert.Equal(t, Palette[0], Color(0))
	assert.Equal(t, Palette[0], Color(len(Palette)))
	assert.Equal(t, Palette[3], Color(13))
}
