// Package parser turns raw scan log text into models.ScanLog.
//
// Validation happens in two tiers. The document tier is strict: the text must
// be JSON, the root must be an object, devices must be an array and scanInfo
// must be present. The record tier is lenient: device entries it cannot use
// are marked as not retained and skipped downstream, never reported.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beaconbay/backend/internal/models"
)

var (
	// ErrMalformedJSON is returned when the input is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON")
	// ErrInvalidSchema is returned when the JSON lacks the required top-level shape.
	ErrInvalidSchema = errors.New("invalid scan log structure")
)

// ParseScanLog parses and validates a scan log document.
func ParseScanLog(raw []byte) (*models.ScanLog, error) {
	var doc json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if firstByte(doc) != '{' {
		return nil, fmt.Errorf("%w: document is not an object", ErrInvalidSchema)
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	devicesRaw, ok := root["devices"]
	if !ok || firstByte(devicesRaw) != '[' {
		return nil, fmt.Errorf("%w: a 'devices' array was not found", ErrInvalidSchema)
	}

	scanInfoRaw, ok := root["scanInfo"]
	if !ok || isFalsy(scanInfoRaw) {
		return nil, fmt.Errorf("%w: 'scanInfo' was not found", ErrInvalidSchema)
	}

	var scanInfo models.ScanInfo
	if err := json.Unmarshal(scanInfoRaw, &scanInfo); err != nil {
		return nil, fmt.Errorf("%w: scanInfo: %v", ErrInvalidSchema, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(devicesRaw, &entries); err != nil {
		return nil, fmt.Errorf("%w: devices: %v", ErrInvalidSchema, err)
	}

	log := &models.ScanLog{
		ScanInfo: scanInfo,
		Devices:  make([]models.Device, 0, len(entries)),
	}
	for _, entry := range entries {
		log.Devices = append(log.Devices, DecodeDevice(entry))
	}

	return log, nil
}

// DecodeDevice decodes one device entry. It never fails; entries that are
// null, not objects, have no string id or no rssiHistory array come back
// with Retained set to false.
func DecodeDevice(raw json.RawMessage) models.Device {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Device{}
	}

	var d models.Device
	d.ID = stringValue(fields["id"])
	d.Name = stringValue(fields["name"])

	if adverts, ok := fields["uniqueAdvertisements"]; ok && firstByte(adverts) == '[' {
		_ = json.Unmarshal(adverts, &d.UniqueAdvertisements)
	}

	history, ok := fields["rssiHistory"]
	if d.ID == "" || !ok || firstByte(history) != '[' {
		return d
	}
	if err := json.Unmarshal(history, &d.RssiHistory); err != nil {
		return d
	}
	if d.RssiHistory == nil {
		d.RssiHistory = []models.RssiEvent{}
	}

	d.Retained = true
	return d
}

// FindDevice returns the first retained device with the given id.
func FindDevice(log *models.ScanLog, id string) (*models.Device, bool) {
	if log == nil {
		return nil, false
	}
	for i := range log.Devices {
		if log.Devices[i].Retained && log.Devices[i].ID == id {
			return &log.Devices[i], true
		}
	}
	return nil, false
}

// FormatAdvertisements pretty-prints a device's advertisement captures.
func FormatAdvertisements(adverts []json.RawMessage) (string, error) {
	if len(adverts) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(adverts); err != nil {
		return "", fmt.Errorf("formatting advertisements: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// isFalsy mirrors what a loosely typed presence check rejects.
func isFalsy(raw []byte) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}

func stringValue(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
