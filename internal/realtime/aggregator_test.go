package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/cache"
	"github.com/motivai/motivai-engine/internal/config"
)

func newTestAggregator(t *testing.T) (*Aggregator, *cache.Memory) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Realtime.Interval = 10 * time.Millisecond
	cfg.Realtime.SnapshotTTL = 30 * time.Second

	mem := cache.NewMemory()
	return New(mem, cfg, zap.NewNop()), mem
}

func TestTickWritesSnapshotsAndPublishes(t *testing.T) {
	a, mem := newTestAggregator(t)
	ctx := context.Background()

	a.tick(ctx)

	stats := a.CurrentStats(ctx)
	if stats.ActiveUsers == 0 || stats.Timestamp.IsZero() {
		t.Errorf("stale stats snapshot: %+v", stats)
	}
	system := a.SystemStatus(ctx)
	if system.CPUUsage == 0 || system.Timestamp.IsZero() {
		t.Errorf("stale system snapshot: %+v", system)
	}

	published := mem.Published(a.Channel())
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	var ev Event
	if err := json.Unmarshal(published[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Stats.ActiveUsers != stats.ActiveUsers {
		t.Errorf("published event does not match cached snapshot")
	}
}

func TestLettersGeneratedReflectsUsageCounter(t *testing.T) {
	a, mem := newTestAggregator(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mem.Incr(ctx, cache.DailyUsageKey(time.Now().UTC()))
	}
	a.tick(ctx)

	if got := a.CurrentStats(ctx).LettersGenerated; got != 3 {
		t.Errorf("lettersGenerated = %d, want 3", got)
	}
}

func TestSnapshotExpiresAfterTTL(t *testing.T) {
	a, mem := newTestAggregator(t)
	ctx := context.Background()

	base := time.Now()
	mem.SetClock(func() time.Time { return base })
	a.tick(ctx)

	if a.CurrentStats(ctx).ActiveUsers == 0 {
		t.Fatal("fresh snapshot expected")
	}

	// Past the TTL the snapshot reads as a miss and a zero snapshot is
	// synthesized instead.
	mem.SetClock(func() time.Time { return base.Add(31 * time.Second) })
	stats := a.CurrentStats(ctx)
	if stats.ActiveUsers != 0 || stats.Timestamp.IsZero() {
		t.Errorf("expected synthesized zero snapshot, got %+v", stats)
	}
}

func TestStartStop(t *testing.T) {
	a, mem := newTestAggregator(t)
	ctx := context.Background()

	a.Start(ctx)
	a.Start(ctx) // second Start is a no-op

	deadline := time.After(2 * time.Second)
	for len(mem.Published(a.Channel())) < 2 {
		select {
		case <-deadline:
			t.Fatal("aggregator did not publish on its interval")
		case <-time.After(5 * time.Millisecond):
		}
	}

	a.Stop()
	a.Stop() // second Stop is a no-op

	count := len(mem.Published(a.Channel()))
	time.Sleep(50 * time.Millisecond)
	if got := len(mem.Published(a.Channel())); got != count {
		t.Errorf("aggregator kept publishing after Stop: %d -> %d", count, got)
	}
}
