// Package models contains domain types for the BeaconBay analyzer.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relvacode/iso8601"
)

// UnnamedPlaceholder is shown for devices that broadcast no name.
const UnnamedPlaceholder = "[unnamed]"

// ScanLog represents a parsed beacon scan log document.
type ScanLog struct {
	ScanInfo ScanInfo `json:"scanInfo"`
	Devices  []Device `json:"devices"`
}

// ScanInfo holds the scan session metadata.
// Raw keeps the bytes as they appeared in the document so exports reproduce them.
type ScanInfo struct {
	ScanStarted string          `json:"scanStarted"`
	ScanEnded   string          `json:"scanEnded"`
	Raw         json.RawMessage `json:"-"`
}

// TimeRange represents a time window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MarshalJSON emits the original document value when one is available.
func (s ScanInfo) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	return json.Marshal(struct {
		ScanStarted string `json:"scanStarted"`
		ScanEnded   string `json:"scanEnded"`
	}{s.ScanStarted, s.ScanEnded})
}

// UnmarshalJSON keeps the raw value and picks out the timestamps when they are strings.
func (s *ScanInfo) UnmarshalJSON(b []byte) error {
	s.Raw = append(json.RawMessage(nil), b...)
	s.ScanStarted, s.ScanEnded = "", ""

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		// Not an object; presence is all the document tier checks.
		return nil
	}
	s.ScanStarted = stringField(fields, "scanStarted")
	s.ScanEnded = stringField(fields, "scanEnded")
	return nil
}

// Window returns the scan window used as the global time axis.
func (s ScanInfo) Window() (TimeRange, error) {
	start, err := ParseTimestamp(s.ScanStarted)
	if err != nil {
		return TimeRange{}, fmt.Errorf("scanStarted: %w", err)
	}
	end, err := ParseTimestamp(s.ScanEnded)
	if err != nil {
		return TimeRange{}, fmt.Errorf("scanEnded: %w", err)
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseTimestamp parses an ISO 8601 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return iso8601.ParseString(s)
}

// Device is one beacon as recorded in the scan log.
type Device struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name,omitempty"`
	RssiHistory          []RssiEvent       `json:"rssiHistory"`
	UniqueAdvertisements []json.RawMessage `json:"uniqueAdvertisements,omitempty"`

	// Retained is false for entries the record tier could not use
	// (null, no id, no rssiHistory array). They stay in the log but are
	// skipped by aggregation.
	Retained bool `json:"-"`
}

// DisplayName returns the broadcast name or the placeholder.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return UnnamedPlaceholder
	}
	return d.Name
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
