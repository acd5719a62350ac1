package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beaconbay/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Format is a mapping document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml"; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported mapping format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Decode parses a mapping document. An empty format sniffs the content:
// documents starting with '{' are JSON, anything else is YAML.
func Decode(data []byte, f Format) (models.Mapping, error) {
	if f == "" {
		f = FormatYAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			f = FormatJSON
		}
	}

	var m models.Mapping
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unsupported mapping format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s mapping: %w", f, err)
	}
	return Normalize(m), nil
}

// Encode writes m in format f with keys sorted.
func Encode(m models.Mapping, f Format) ([]byte, error) {
	m = Normalize(m)
	switch f {
	case FormatJSON, "":
		return json.MarshalIndent(m, "", "  ")
	case FormatYAML:
		return yaml.Marshal(map[string]string(m))
	default:
		return nil, fmt.Errorf("unsupported mapping format %q", f)
	}
}
