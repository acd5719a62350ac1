package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRssiEvent_DecodedEventsMarshalAsRead(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantNumeric bool
	}{
		{name: "numeric", input: `{"t": "2024-01-01T00:00:00Z", "r": -61.5}`, want: `{"t":"2024-01-01T00:00:00Z","r":-61.5}`, wantNumeric: true},
		{name: "missing t", input: `{"r": -70}`, want: `{"r":-70}`, wantNumeric: true},
		{name: "missing r", input: `{"t": "2024-01-01T00:00:00Z"}`, want: `{"t":"2024-01-01T00:00:00Z"}`},
		{name: "extra members", input: `{"t": "2024-01-01T00:00:00Z", "r": -60, "ch": 37, "addr": "aa"}`, want: `{"t":"2024-01-01T00:00:00Z","r":-60,"ch":37,"addr":"aa"}`, wantNumeric: true},
		{name: "non-numeric r", input: `{"t": "2024-01-01T00:00:00Z", "r": "weak"}`, want: `{"t":"2024-01-01T00:00:00Z","r":"weak"}`},
		{name: "non-string t", input: `{"t": 1704067200, "r": -60}`, want: `{"t":1704067200,"r":-60}`, wantNumeric: true},
		{name: "not an object", input: `"oops"`, want: `{}`},
		{name: "null", input: `null`, want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev RssiEvent
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ev))
			assert.Equal(t, tt.wantNumeric, ev.Numeric)

			out, err := json.Marshal(ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestRssiEvent_BuiltEventsMarshal(t *testing.T) {
	tests := []struct {
		name string
		ev   RssiEvent
		want string
	}{
		{name: "numeric", ev: NewRssiEvent("2024-01-01T00:00:00Z", -60), want: `{"t":"2024-01-01T00:00:00Z","r":-60}`},
		{name: "raw r", ev: RssiEvent{T: "2024-01-01T00:00:00Z", Raw: json.RawMessage(`"weak"`)}, want: `{"t":"2024-01-01T00:00:00Z","r":"weak"}`},
		{name: "no t", ev: RssiEvent{R: -70, Numeric: true}, want: `{"r":-70}`},
		{name: "empty", ev: RssiEvent{}, want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}
