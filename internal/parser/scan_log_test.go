package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validLog = `{
  "scanInfo": {"scanStarted": "2024-01-01T00:00:00Z", "scanEnded": "2024-01-01T01:00:00Z"},
  "devices": [
    {"id": "A", "name": "Beacon A", "rssiHistory": [{"t": "2024-01-01T00:00:00Z", "r": -50}],
     "uniqueAdvertisements": [{"serviceData": {"feaa": "00ff"}}]},
    {"rssiHistory": [{"t": "2024-01-01T00:00:00Z", "r": -50}]},
    {"id": "B", "rssiHistory": []}
  ]
}`

func TestParseScanLog_DocumentTier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid document", input: validLog},
		{name: "not json", input: `{"devices": [`, wantErr: ErrMalformedJSON},
		{name: "empty input", input: ``, wantErr: ErrMalformedJSON},
		{name: "array root", input: `[1, 2, 3]`, wantErr: ErrInvalidSchema},
		{name: "null root", input: `null`, wantErr: ErrInvalidSchema},
		{name: "missing devices", input: `{"scanInfo": {}}`, wantErr: ErrInvalidSchema},
		{name: "devices not an array", input: `{"scanInfo": {}, "devices": {}}`, wantErr: ErrInvalidSchema},
		{name: "missing scanInfo", input: `{"devices": []}`, wantErr: ErrInvalidSchema},
		{name: "null scanInfo", input: `{"devices": [], "scanInfo": null}`, wantErr: ErrInvalidSchema},
		{name: "empty device list is fine", input: `{"devices": [], "scanInfo": {"scanStarted": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := ParseScanLog([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, log)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseScanLog_RecordTier(t *testing.T) {
	log, err := ParseScanLog([]byte(validLog))
	require.NoError(t, err)
	require.Len(t, log.Devices, 3)

	assert.True(t, log.Devices[0].Retained)
	assert.Equal(t, "A", log.Devices[0].ID)
	assert.Equal(t, "Beacon A", log.Devices[0].DisplayName())
	assert.Len(t, log.Devices[0].UniqueAdvertisements, 1)

	assert.False(t, log.Devices[1].Retained, "device without id must not be retained")

	assert.True(t, log.Devices[2].Retained)
	assert.Equal(t, "[unnamed]", log.Devices[2].DisplayName())
	assert.NotNil(t, log.Devices[2].RssiHistory)
	assert.Empty(t, log.Devices[2].RssiHistory)
}

func TestParseScanLog_ScanInfo(t *testing.T) {
	log, err := ParseScanLog([]byte(validLog))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01T00:00:00Z", log.ScanInfo.ScanStarted)
	window, err := log.ScanInfo.Window()
	require.NoError(t, err)
	assert.Equal(t, int64(3600), window.End.Unix()-window.Start.Unix())

	out, err := json.Marshal(log.ScanInfo)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scanStarted": "2024-01-01T00:00:00Z", "scanEnded": "2024-01-01T01:00:00Z"}`, string(out))
}

func TestDecodeDevice(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantRetained bool
		wantEvents   int
	}{
		{name: "null entry", input: `null`},
		{name: "number entry", input: `42`},
		{name: "numeric id", input: `{"id": 7, "rssiHistory": []}`},
		{name: "empty id", input: `{"id": "", "rssiHistory": []}`},
		{name: "history not an array", input: `{"id": "X", "rssiHistory": "none"}`},
		{name: "missing history", input: `{"id": "X"}`},
		{name: "mixed events", input: `{"id": "X", "rssiHistory": [{"t": "2024-01-01T00:00:00Z", "r": -60}, {"t": "2024-01-01T00:00:01Z", "r": "weak"}, null]}`, wantRetained: true, wantEvents: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecodeDevice(json.RawMessage(tt.input))
			assert.Equal(t, tt.wantRetained, d.Retained)
			assert.Len(t, d.RssiHistory, tt.wantEvents)
		})
	}
}

func TestDecodeDevice_NonNumericRssiKeepsRawValue(t *testing.T) {
	d := DecodeDevice(json.RawMessage(`{"id": "X", "rssiHistory": [{"t": "2024-01-01T00:00:00Z", "r": "weak"}]}`))
	require.True(t, d.Retained)
	require.Len(t, d.RssiHistory, 1)

	ev := d.RssiHistory[0]
	assert.False(t, ev.Numeric)
	assert.False(t, ev.Plottable())

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t": "2024-01-01T00:00:00Z", "r": "weak"}`, string(out))
}

func TestFindDevice(t *testing.T) {
	log, err := ParseScanLog([]byte(`{"scanInfo": {}, "devices": [
		{"id": "dup", "name": "first", "rssiHistory": []},
		{"id": "dup", "name": "second", "rssiHistory": []}
	]}`))
	require.NoError(t, err)

	d, ok := FindDevice(log, "dup")
	require.True(t, ok)
	assert.Equal(t, "first", d.Name)

	_, ok = FindDevice(log, "missing")
	assert.False(t, ok)
}

func TestFormatAdvertisements(t *testing.T) {
	out, err := FormatAdvertisements(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = FormatAdvertisements([]json.RawMessage{json.RawMessage(`{"name":"<b>"}`)})
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"name\": \"<b>\"\n  }\n]", out)
}
