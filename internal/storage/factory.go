package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/photolog/internal/entry"
)

// Factory hands out per-session entry backends sharing one underlying store
type Factory interface {
	Open(sessionID string) entry.Backend
	Close() error
}

// NewBackendFactory selects a backend by store type.
// ttl bounds how long an idle session's entries may linger in external stores.
func NewBackendFactory(storeType, connectionString string, ttl time.Duration) (factory Factory, err error) {
	switch storeType {
	case "", "memory":
		factory = NewMemoryFactory()
	case "sqlite":
		factory, err = NewSQLiteFactory(connectionString)
		if err != nil {
			return nil, err
		}
	case "redis":
		factory, err = NewRedisFactory(connectionString, ttl)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}

	slog.Info("entry store initialized", "type", storeType)
	return factory, nil
}
