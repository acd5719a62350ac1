package export

import (
	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/parser"
)

// Series prepares the ranked devices for the timeline. Each series is named
// by its mapping label when one exists and colored by rank. Devices that
// can no longer be found in the log are skipped.
func Series(top []models.DeviceStats, log *models.ScanLog, mapping models.Mapping, withAdverts bool) []models.GraphSeries {
	series := make([]models.GraphSeries, 0, len(top))
	for i, s := range top {
		d, ok := parser.FindDevice(log, s.ID)
		if !ok {
			continue
		}
		name := mapping[s.ID]
		if name == "" {
			name = s.Name
		}
		if name == "" {
			name = s.ID
		}
		gs := models.GraphSeries{
			ID:      s.ID,
			Name:    name,
			Color:   chart.Color(i),
			History: d.RssiHistory,
		}
		if withAdverts {
			gs.Advertisements = d.UniqueAdvertisements
		}
		series = append(series, gs)
	}
	return series
}
