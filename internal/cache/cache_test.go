package cache

import (
	"context"
	"testing"
	"time"

	"macrocal/internal/config"
)

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "fred:CPIAUCSL", []byte("315.6"), time.Minute); err != nil {
		t.Fatalf("set err=%v", err)
	}
	v, ok, err := s.Get(ctx, "fred:CPIAUCSL")
	if err != nil || !ok || string(v) != "315.6" {
		t.Fatalf("v=%q ok=%v err=%v", v, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "fred:CPIAUCSL"); ok {
		t.Fatalf("expected expired entry")
	}
	if s.Len() != 0 {
		t.Fatalf("len=%d want=0 after expired read", s.Len())
	}
}

func TestMemoryStore_NoExpiryAndDelete(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("v"), 0)
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatalf("expected entry")
	}
	_ = s.Delete(ctx, "k")
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted")
	}
}

func TestMemoryStore_EvictsWhenFull(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(2)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Set(ctx, "bls:LNS14000000", []byte("4.1"), time.Hour)
	_ = s.Set(ctx, "fred:UNRATE", []byte("4.1"), time.Minute)
	_ = s.Set(ctx, "ecb:HICP", []byte("2.4"), time.Hour)
	if s.Len() != 2 {
		t.Fatalf("len=%d want=2", s.Len())
	}
	if _, ok, _ := s.Get(ctx, "fred:UNRATE"); ok {
		t.Fatalf("entry closest to expiry should be evicted")
	}

	// Expired entries are swept before anything live is dropped.
	now = now.Add(2 * time.Hour)
	_ = s.Set(ctx, "fred:GDP", []byte("29000"), time.Hour)
	_ = s.Set(ctx, "fred:PAYEMS", []byte("159000"), time.Hour)
	for _, key := range []string{"fred:GDP", "fred:PAYEMS"} {
		if _, ok, _ := s.Get(ctx, key); !ok {
			t.Fatalf("missing %s", key)
		}
	}
}

func TestNamespace(t *testing.T) {
	mem := NewMemoryStore(0)
	ctx := context.Background()
	s := Namespace(Namespace(mem, "macrocal:"), "statapi")
	_ = s.Set(ctx, "fred:CPIAUCSL", []byte("315.6"), time.Minute)
	if _, ok, _ := mem.Get(ctx, "macrocal:statapi:fred:CPIAUCSL"); !ok {
		t.Fatalf("expected nested namespace key")
	}
	if Namespace(mem, "") != Store(mem) {
		t.Fatalf("empty namespace should return the store unchanged")
	}
}

func TestNew_PrefixAndDriver(t *testing.T) {
	s, err := New(config.CacheConfig{Driver: "memory", KeyPrefix: "mc:"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	ctx := context.Background()
	_ = s.Set(ctx, "a", []byte("1"), time.Minute)
	inner := s.(*namespaced).inner.(*MemoryStore)
	if _, ok, _ := inner.Get(ctx, "mc:a"); !ok {
		t.Fatalf("expected prefixed key")
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping err=%v", err)
	}
	if err := Close(s); err != nil {
		t.Fatalf("close err=%v", err)
	}
	if _, err := New(config.CacheConfig{Driver: "memcached"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
