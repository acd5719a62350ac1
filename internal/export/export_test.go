package export

import (
	"strings"
	"testing"
	"time"

	"github.com/beaconbay/backend/internal/analysis"
	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/chart/svg"
	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{
  "scanInfo": {"scanStarted": "2024-01-01T10:00:00Z", "scanEnded": "2024-01-01T10:10:00Z", "host": "pi-04"},
  "devices": [
    {"id": "aa:01", "name": "Kitchen & Hall", "rssiHistory": [
      {"t": "2024-01-01T10:00:00Z", "r": -61},
      {"t": "2024-01-01T10:01:00Z", "r": -63.5},
      {"t": "2024-01-01T10:02:00Z", "r": "n/a"}
    ], "uniqueAdvertisements": [{"manufacturerData": "4c00"}]},
    {"id": "aa:02", "rssiHistory": [
      {"t": "2024-01-01T10:00:30Z", "r": -80},
      {"t": "2024-01-01T10:03:00Z", "r": -82}
    ]},
    {"id": "aa:03", "rssiHistory": [{"t": "2024-01-01T10:05:00Z", "r": -90}]}
  ]
}`

func prepare(t *testing.T, mapping models.Mapping, withAdverts bool) (*models.ScanLog, []models.GraphSeries, *chart.Chart) {
	t.Helper()
	log, err := parser.ParseScanLog([]byte(sampleLog))
	require.NoError(t, err)

	ranked := analysis.Rank(analysis.Compute(log.Devices))
	series := Series(ranked, log, mapping, withAdverts)

	window, err := log.ScanInfo.Window()
	require.NoError(t, err)
	c, outcome := chart.NewRenderer(time.UTC).Timeline(series, window)
	require.Equal(t, chart.OutcomeRendered, outcome)
	return log, series, c
}

func TestSeries(t *testing.T) {
	_, series, _ := prepare(t, models.Mapping{"aa:02": "Lobby"}, false)
	require.Len(t, series, 3)

	assert.Equal(t, "aa:01", series[0].ID)
	assert.Equal(t, "Kitchen & Hall", series[0].Name)
	assert.Equal(t, chart.Palette[0], series[0].Color)
	assert.Nil(t, series[0].Advertisements)

	assert.Equal(t, "Lobby", series[1].Name)
	assert.Equal(t, models.UnnamedPlaceholder, series[2].Name)
}

func TestSeries_WithAdvertisements(t *testing.T) {
	_, series, _ := prepare(t, nil, true)
	require.Len(t, series[0].Advertisements, 1)
	assert.Empty(t, series[1].Advertisements)
}

func TestPackage_DataRoundTrips(t *testing.T) {
	log, series, c := prepare(t, nil, false)

	bundle, err := Package(c, series, log.ScanInfo, svg.DefaultTheme())
	require.NoError(t, err)
	require.NotEmpty(t, bundle.ID)

	assert.Contains(t, string(bundle.Data), "\n  \"scanInfo\": {")
	assert.Contains(t, string(bundle.Data), "Kitchen & Hall", "HTML escaping is disabled")
	assert.Contains(t, string(bundle.Data), `"host": "pi-04"`, "scanInfo is carried verbatim")

	doc, err := Unmarshal(bundle.Data)
	require.NoError(t, err)
	assert.Equal(t, log.ScanInfo.ScanStarted, doc.ScanInfo.ScanStarted)
	require.Len(t, doc.Devices, len(series))
	for i := range series {
		assert.Equal(t, series[i].ID, doc.Devices[i].ID)
		assert.Equal(t, series[i].Color, doc.Devices[i].Color)
		assert.Equal(t, series[i].History, doc.Devices[i].History)
	}

	again, err := Marshal(*doc)
	require.NoError(t, err)
	assert.Equal(t, string(bundle.Data), string(again))
}

func TestPackage_Image(t *testing.T) {
	log, series, c := prepare(t, nil, false)
	theme := svg.Theme{Text: "#abcdef"}

	bundle, err := Package(c, series, log.ScanInfo, theme)
	require.NoError(t, err)

	image := string(bundle.Image)
	assert.True(t, strings.HasPrefix(image, "<?xml"))
	assert.Contains(t, image, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, image, "<style>")
	assert.Contains(t, image, "#abcdef")
	assert.Contains(t, image, "Kitchen &amp; Hall")
}

func TestPackage_FreshIDs(t *testing.T) {
	log, series, c := prepare(t, nil, false)
	a, err := Package(c, series, log.ScanInfo, svg.DefaultTheme())
	require.NoError(t, err)
	b, err := Package(c, series, log.ScanInfo, svg.DefaultTheme())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPackage_NoChart(t *testing.T) {
	_, err := Package(nil, nil, models.ScanInfo{}, svg.DefaultTheme())
	assert.Error(t, err)
}

func TestMarshal_EmptyDevices(t *testing.T) {
	data, err := Marshal(Document{ScanInfo: models.ScanInfo{ScanStarted: "a", ScanEnded: "b"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"devices": []`)
}
