package models

import "encoding/json"

// DeviceStats holds the derived signal statistics for one device.
type DeviceStats struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	// AvgRSSI is the mean rounded to two decimals ("-60.00"), nil without events.
	AvgRSSI *string `json:"avgRssi"`
	// MaxRSSI is the strongest numeric reading, nil when there is none.
	MaxRSSI *float64 `json:"maxRssi"`
}

// Mapping maps device IDs to user supplied location labels.
type Mapping map[string]string

// GraphSeries is one device prepared for the timeline chart.
type GraphSeries struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Color          string            `json:"color"`
	History        []RssiEvent       `json:"history"`
	Advertisements []json.RawMessage `json:"advertisements,omitempty"`
}

// DeviceCard is a DeviceStats entry decorated with its mapping label.
type DeviceCard struct {
	DeviceStats
	Label       string `json:"label,omitempty"`
	DisplayName string `json:"displayName"`
	Mapped      bool   `json:"mapped"`
}

// DevicePage is one page of the ranked device listing.
type DevicePage struct {
	Items      []DeviceCard `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
	Total      int          `json:"total"`
	Warning    string       `json:"warning,omitempty"`
}
