package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelinePDF(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	series := []models.GraphSeries{{
		ID:   "A",
		Name: "Büro",
		History: []models.RssiEvent{
			models.NewRssiEvent("2024-01-01T10:00:00Z", -60),
			models.NewRssiEvent("2024-01-01T10:05:00Z", -70),
		},
	}}
	c, outcome := chart.NewRenderer(time.UTC).Timeline(series, models.TimeRange{Start: start, End: start.Add(10 * time.Minute)})
	require.Equal(t, chart.OutcomeRendered, outcome)

	out, err := TimelinePDF(c)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTimelinePDF_NilChart(t *testing.T) {
	_, err := TimelinePDF(nil)
	assert.Error(t, err)
}

func TestRGB(t *testing.T) {
	r, g, b := rgb("#4e79a7", 0, 0, 0)
	assert.Equal(t, []int{0x4e, 0x79, 0xa7}, []int{r, g, b})

	r, g, b = rgb("red", 1, 2, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{r, g, b})
}
