package analysis

import (
	"cmp"
	"slices"

	"github.com/beaconbay/backend/internal/models"
)

// Rank orders stats by event count, most talkative first.
// The sort is stable and the input slice is left untouched.
func Rank(stats []models.DeviceStats) []models.DeviceStats {
	ranked := slices.Clone(stats)
	slices.SortStableFunc(ranked, func(a, b models.DeviceStats) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return ranked
}

// Top returns the first n entries of a ranked slice.
func Top(ranked []models.DeviceStats, n int) []models.DeviceStats {
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n]
}
