// Package analysis derives per-device signal statistics from a scan log
// and orders them for display.
package analysis

import (
	"github.com/beaconbay/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Compute returns one DeviceStats per retained device, in input order.
//
// Count includes every event in the history, numeric or not, while the
// average divides the numeric sum by that count. A device whose events are
// all non-numeric therefore reports an average of "0.00" and no maximum.
func Compute(devices []models.Device) []models.DeviceStats {
	stats := make([]models.DeviceStats, 0, len(devices))
	for _, d := range devices {
		if !d.Retained {
			continue
		}
		stats = append(stats, deviceStats(d))
	}
	return stats
}

func deviceStats(d models.Device) models.DeviceStats {
	s := models.DeviceStats{
		ID:    d.ID,
		Name:  d.DisplayName(),
		Count: len(d.RssiHistory),
	}
	if s.Count == 0 {
		return s
	}

	var sum float64
	var strongest float64
	seen := false
	for _, ev := range d.RssiHistory {
		if !ev.Numeric {
			continue
		}
		sum += ev.R
		if !seen || ev.R > strongest {
			strongest = ev.R
			seen = true
		}
	}

	avg := FormatAverage(sum / float64(s.Count))
	s.AvgRSSI = &avg
	if seen {
		s.MaxRSSI = &strongest
	}
	return s
}

// FormatAverage renders v with exactly two decimals, rounding half away from zero.
func FormatAverage(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// TotalEvents sums the history lengths of all retained devices.
func TotalEvents(devices []models.Device) int {
	total := 0
	for _, d := range devices {
		if d.Retained {
			total += len(d.RssiHistory)
		}
	}
	return total
}
