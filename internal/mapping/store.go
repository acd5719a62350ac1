// Package mapping persists the user's device ID to location label mapping.
//
// Every backend normalizes on Set, so a label read back is always trimmed
// and non-empty.
package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/beaconbay/backend/internal/models"
)

// Store is a key-value collaborator holding device labels.
type Store interface {
	Get(ctx context.Context) (models.Mapping, error)
	Set(ctx context.Context, m models.Mapping) error
	Clear(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	FilePath   string
	SQLitePath string
	RedisAddr  string
	RedisKey   string
}

// Open returns the backend named by opts.Backend; empty means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.FilePath), nil
	case BackendSQLite:
		return NewSQLStore(opts.SQLitePath)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisKey)
	default:
		return nil, fmt.Errorf("unknown mapping backend %q", opts.Backend)
	}
}

// Normalize trims labels and drops entries that end up empty.
// Device IDs are kept as given, apart from dropping empty ones.
func Normalize(m models.Mapping) models.Mapping {
	out := make(models.Mapping, len(m))
	for id, label := range m {
		label = strings.TrimSpace(label)
		if id == "" || label == "" {
			continue
		}
		out[id] = label
	}
	return out
}
