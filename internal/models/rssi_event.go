package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// RssiEvent is a single signal observation.
// Events with a non-numeric r are kept (they still count as scan events),
// with the original value held in Raw. Decoded events also keep their whole
// source object, compacted, so exports reproduce fields this package ignores.
type RssiEvent struct {
	T       string
	R       float64
	Numeric bool
	Raw     json.RawMessage
	Source  json.RawMessage
}

// NewRssiEvent builds a numeric event.
func NewRssiEvent(t string, r float64) RssiEvent {
	return RssiEvent{T: t, R: r, Numeric: true}
}

// Time parses T.
func (e RssiEvent) Time() (time.Time, error) {
	return ParseTimestamp(e.T)
}

// Plottable reports whether the event can be placed on a chart.
func (e RssiEvent) Plottable() bool {
	if !e.Numeric {
		return false
	}
	_, err := e.Time()
	return err == nil
}

// MarshalJSON emits the source object when there is one, otherwise
// {"t": ..., "r": ...} with absent members left out.
func (e RssiEvent) MarshalJSON() ([]byte, error) {
	if len(e.Source) > 0 {
		return e.Source, nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	if e.T != "" {
		t, err := json.Marshal(e.T)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"t":`)
		buf.Write(t)
	}
	var r []byte
	switch {
	case e.Numeric:
		r = strconv.AppendFloat(nil, e.R, 'f', -1, 64)
	case len(e.Raw) > 0:
		r = e.Raw
	}
	if r != nil {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"r":`)
		buf.Write(r)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON never fails: anything that is not an object decodes to an
// empty, non-numeric event.
func (e *RssiEvent) UnmarshalJSON(b []byte) error {
	*e = RssiEvent{}

	var wire map[string]json.RawMessage
	if err := json.Unmarshal(b, &wire); err != nil || wire == nil {
		return nil
	}
	var source bytes.Buffer
	if err := json.Compact(&source, b); err == nil {
		e.Source = source.Bytes()
	}
	e.T = stringField(wire, "t")

	raw, ok := wire["r"]
	if !ok {
		return nil
	}
	var r float64
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) {
		if err := json.Unmarshal(trimmed, &r); err == nil {
			e.R = r
			e.Numeric = true
			return nil
		}
	}
	e.Raw = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)
	return nil
}
