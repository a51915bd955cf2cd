package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jo-hoe/photolog/internal/entry"
)

func sampleEntries() []entry.Entry {
	return []entry.Entry{
		{Image: "data:image/png;base64,AAAA", Caption: "one", Category1: "placeholder1", Category2: "placeholder1A"},
		{Image: "data:image/png;base64,BBBB", Caption: "two <b>", Category1: "placeholder2", Category2: "placeholder2B"},
		{Image: "data:image/png;base64,CCCC", Caption: "three", Category1: "placeholder3", Category2: "placeholder3C"},
	}
}

func newFactories(t *testing.T) map[string]Factory {
	t.Helper()

	sqliteFactory, err := NewSQLiteFactory(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteFactory error: %v", err)
	}
	t.Cleanup(func() { _ = sqliteFactory.Close() })

	mr := miniredis.RunT(t)
	redisFactory, err := NewRedisFactory(mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("NewRedisFactory error: %v", err)
	}
	t.Cleanup(func() { _ = redisFactory.Close() })

	return map[string]Factory{
		"memory": NewMemoryFactory(),
		"sqlite": sqliteFactory,
		"redis":  redisFactory,
	}
}

func TestBackends_AppendListDiscard(t *testing.T) {
	for name, factory := range newFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			backend := factory.Open("session-a")

			empty, err := backend.List(ctx)
			if err != nil {
				t.Fatalf("List on empty session error: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("expected empty session, got %d entries", len(empty))
			}

			want := sampleEntries()
			for i, e := range want {
				if err := backend.Append(ctx, e); err != nil {
					t.Fatalf("Append #%d error: %v", i, err)
				}
			}

			got, err := backend.List(ctx)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}

			if err := backend.Discard(ctx); err != nil {
				t.Fatalf("Discard error: %v", err)
			}
			after, err := backend.List(ctx)
			if err != nil {
				t.Fatalf("List after discard error: %v", err)
			}
			if len(after) != 0 {
				t.Errorf("expected no entries after discard, got %d", len(after))
			}
		})
	}
}

func TestBackends_SessionsAreIsolated(t *testing.T) {
	for name, factory := range newFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := factory.Open("session-a")
			b := factory.Open("session-b")

			if err := a.Append(ctx, sampleEntries()[0]); err != nil {
				t.Fatalf("Append error: %v", err)
			}
			got, err := b.List(ctx)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("session-b sees %d entries from session-a", len(got))
			}

			if err := b.Discard(ctx); err != nil {
				t.Fatalf("Discard error: %v", err)
			}
			kept, err := a.List(ctx)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(kept) != 1 {
				t.Errorf("discarding session-b removed session-a entries")
			}
		})
	}
}

func TestRedisBackend_SetsSessionTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	factory, err := NewRedisFactory(mr.Addr(), 30*time.Minute)
	if err != nil {
		t.Fatalf("NewRedisFactory error: %v", err)
	}
	t.Cleanup(func() { _ = factory.Close() })

	backend := factory.Open("ttl-session")
	if err := backend.Append(context.Background(), sampleEntries()[0]); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	key := redisKeyPrefix + "ttl-session:entries"
	if ttl := mr.TTL(key); ttl != 30*time.Minute {
		t.Errorf("TTL(%s) = %v, want 30m", key, ttl)
	}

	mr.FastForward(31 * time.Minute)
	got, err := backend.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected entries to expire with the session, got %d", len(got))
	}
}

func TestRedisBackend_TouchExtendsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	factory, err := NewRedisFactory(mr.Addr(), 30*time.Minute)
	if err != nil {
		t.Fatalf("NewRedisFactory error: %v", err)
	}
	t.Cleanup(func() { _ = factory.Close() })

	ctx := context.Background()
	backend := factory.Open("touched-session")
	if err := backend.Append(ctx, sampleEntries()[0]); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	for i := 0; i < 3; i++ {
		mr.FastForward(20 * time.Minute)
		if err := backend.Touch(ctx); err != nil {
			t.Fatalf("Touch #%d error: %v", i, err)
		}
	}

	got, err := backend.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("touched session kept %d entries, want 1", len(got))
	}
}

func TestBackends_TouchOnEmptySession(t *testing.T) {
	for name, factory := range newFactories(t) {
		t.Run(name, func(t *testing.T) {
			backend := factory.Open("never-appended")
			if err := backend.Touch(context.Background()); err != nil {
				t.Fatalf("Touch error: %v", err)
			}
			got, err := backend.List(context.Background())
			if err != nil || len(got) != 0 {
				t.Errorf("List() = %v, %v; want empty", got, err)
			}
		})
	}
}

func TestNewBackendFactory(t *testing.T) {
	factory, err := NewBackendFactory("memory", "", time.Hour)
	if err != nil {
		t.Fatalf("memory factory error: %v", err)
	}
	if _, ok := factory.(*MemoryFactory); !ok {
		t.Errorf("expected *MemoryFactory, got %T", factory)
	}

	factory, err = NewBackendFactory("sqlite", ":memory:", time.Hour)
	if err != nil {
		t.Fatalf("sqlite factory error: %v", err)
	}
	_ = factory.Close()

	if _, err := NewBackendFactory("postgres", "", time.Hour); err == nil {
		t.Error("expected error for unsupported store type")
	}
}

func TestNewRedisFactory_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisFactory(addr, time.Hour); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}
