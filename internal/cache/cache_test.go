package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return New(cfg, zap.NewNop())
}

func TestDisabledClientFailsSoft(t *testing.T) {
	c := disabledClient(t)
	ctx := context.Background()

	if _, found := c.Get(ctx, "anything"); found {
		t.Error("disabled cache must always miss")
	}
	// Writes must be silent no-ops.
	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Del(ctx, "k")
	c.Publish(ctx, "ch", []byte("msg"))
	if n := c.Incr(ctx, "counter"); n != 0 {
		t.Errorf("disabled incr = %d, want 0", n)
	}
	if _, found := c.Get(ctx, "k"); found {
		t.Error("set on disabled cache must not store")
	}
}

func TestUnreachableStoreFailsSoft(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	// Nothing listens here; every operation must degrade to miss/no-op.
	cfg.Cache.URL = "redis://127.0.0.1:1/0"
	cfg.Cache.Token = "token"
	cfg.Cache.Disabled = false

	c := New(cfg, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, found := c.Get(ctx, "k"); found {
		t.Error("get against unreachable store must miss")
	}
	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Del(ctx, "k")
	c.Publish(ctx, "ch", []byte("msg"))
	if n := c.Incr(ctx, "counter"); n != 0 {
		t.Errorf("incr against unreachable store = %d, want 0", n)
	}
}

func TestInvalidURLYieldsDisabledClient(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Cache.URL = "://not-a-url"
	cfg.Cache.Token = "token"
	cfg.Cache.Disabled = false

	c := New(cfg, zap.NewNop())
	if _, found := c.Get(context.Background(), "k"); found {
		t.Error("client with invalid url must always miss")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.SetClock(func() time.Time { return now })
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), 86400*time.Second)
	if _, found := m.Get(ctx, "k"); !found {
		t.Fatal("entry must be readable immediately after write")
	}

	now = now.Add(86401 * time.Second)
	if _, found := m.Get(ctx, "k"); found {
		t.Error("entry must read as miss after TTL expiry")
	}
}

func TestMemoryNoTTLPersists(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.SetClock(func() time.Time { return now })
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), 0)
	now = now.Add(1000 * time.Hour)
	if _, found := m.Get(ctx, "k"); !found {
		t.Error("TTL-less entry must live until explicitly deleted")
	}
	m.Del(ctx, "k")
	if _, found := m.Get(ctx, "k"); found {
		t.Error("deleted entry must miss")
	}
}

func TestJSONEnvelopeSchemaVersioning(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type widget struct {
		Name string `json:"name"`
	}

	SetJSON(ctx, m, "w", 2, widget{Name: "a"}, time.Minute)

	var out widget
	if !GetJSON(ctx, m, "w", 2, &out) {
		t.Fatal("matching schema must read back")
	}
	if out.Name != "a" {
		t.Errorf("got %+v", out)
	}

	// A reader expecting a different schema version must see a miss.
	if GetJSON(ctx, m, "w", 3, &out) {
		t.Error("schema mismatch must read as miss")
	}

	// Corrupt payloads must read as miss, not error.
	m.Set(ctx, "junk", []byte("{not json"), time.Minute)
	if GetJSON(ctx, m, "junk", 1, &out) {
		t.Error("corrupt payload must read as miss")
	}
}

func TestMemoryIncr(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		if got := m.Incr(ctx, "c"); got != want {
			t.Errorf("incr = %d, want %d", got, want)
		}
	}
}
