package sessions

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "wizard:a", []byte(`{"step":"menu"}`), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	v, ok, err := m.Get(ctx, "wizard:a")
	if err != nil || !ok || string(v) != `{"step":"menu"}` {
		t.Fatalf("Get=%q,%v,%v", v, ok, err)
	}
	v[0] = 'X'
	if again, _, _ := m.Get(ctx, "wizard:a"); again[0] != '{' {
		t.Fatalf("Get must return a copy")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "wizard:a"); ok {
		t.Fatalf("entry should expire at its ttl")
	}

	_ = m.Set(ctx, "wizard:b", []byte("1"), time.Minute)
	_ = m.Set(ctx, "wizard:c", []byte("2"), time.Hour)
	now = now.Add(2 * time.Minute)
	if n := m.Purge(); n != 1 {
		t.Fatalf("Purge removed %d, want 1", n)
	}
	_ = m.Delete(ctx, "wizard:c")
	if _, ok, _ := m.Get(ctx, "wizard:c"); ok {
		t.Fatalf("deleted entry still present")
	}
}

func TestNewRedisAcceptsURLAndAddr(t *testing.T) {
	for _, addr := range []string{"redis://localhost:6379/2", "localhost:6379"} {
		r, err := NewRedis(addr)
		if err != nil {
			t.Fatalf("NewRedis(%q) returned error: %v", addr, err)
		}
		_ = r.Close()
	}
}
