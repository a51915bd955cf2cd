package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/jo-hoe/photolog/internal/entry"
)

type MemoryFactory struct{}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{}
}

func (f *MemoryFactory) Open(_ string) entry.Backend {
	return &MemoryBackend{}
}

func (f *MemoryFactory) Close() error {
	return nil
}

// MemoryBackend keeps entries in a slice for the lifetime of the session
type MemoryBackend struct {
	mu      sync.RWMutex
	entries []entry.Entry
}

func (b *MemoryBackend) Append(_ context.Context, e entry.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
	return nil
}

func (b *MemoryBackend) List(_ context.Context) ([]entry.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.entries), nil
}

func (b *MemoryBackend) Touch(_ context.Context) error {
	return nil
}

func (b *MemoryBackend) Discard(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	return nil
}
