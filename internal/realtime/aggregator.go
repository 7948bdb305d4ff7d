// Package realtime maintains short-lived analytics snapshots.
//
// A background loop refreshes two snapshots in the cache on a fixed
// interval and publishes each refresh on a pub/sub channel for live
// dashboard subscribers. Snapshots carry a short TTL so a stopped
// aggregator leaves no stale data behind: readers fall back to a
// synthesized zero snapshot once the TTL lapses.
package realtime

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/cache"
	"github.com/motivai/motivai-engine/internal/config"
)

// Snapshot schema versions.
const (
	SchemaRealTimeStats = 1
	SchemaSystemMetrics = 1
)

// RealTimeStats is the user-activity snapshot served to dashboards.
type RealTimeStats struct {
	ActiveUsers      int       `json:"activeUsers"`
	LettersGenerated int64     `json:"lettersGenerated"`
	Conversions      int       `json:"conversions"`
	Revenue          float64   `json:"revenue"`
	Timestamp        time.Time `json:"timestamp"`
}

// SystemMetrics is the system-health snapshot served to dashboards.
type SystemMetrics struct {
	CPUUsage     float64   `json:"cpuUsage"`
	MemoryUsage  float64   `json:"memoryUsage"`
	ResponseTime float64   `json:"responseTime"` // milliseconds
	ErrorRate    float64   `json:"errorRate"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event is the combined payload published on each refresh.
type Event struct {
	Stats  RealTimeStats `json:"stats"`
	System SystemMetrics `json:"system"`
}

// Aggregator refreshes analytics snapshots on a fixed interval.
type Aggregator struct {
	cache    cache.Cache
	logger   *zap.Logger
	interval time.Duration
	ttl      time.Duration
	channel  string

	rng *rand.Rand
	now func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an aggregator from the realtime configuration section.
func New(c cache.Cache, cfg *config.Config, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		cache:    c,
		logger:   logger,
		interval: cfg.Realtime.Interval,
		ttl:      cfg.Realtime.SnapshotTTL,
		channel:  cfg.Realtime.Channel,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Start launches the refresh loop. Calling Start on a running aggregator
// is a no-op.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	stopCh, doneCh := a.stopCh, a.doneCh
	a.mu.Unlock()

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		a.tick(ctx)
		for {
			select {
			case <-ticker.C:
				a.tick(ctx)
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	a.logger.Info("realtime aggregator started",
		zap.Duration("interval", a.interval),
		zap.Duration("snapshot_ttl", a.ttl))
}

// Stop halts the refresh loop and waits for it to exit. Safe to call more
// than once.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stopCh)
	doneCh := a.doneCh
	a.mu.Unlock()

	<-doneCh
	a.logger.Info("realtime aggregator stopped")
}

// tick writes fresh snapshots and publishes the combined event.
func (a *Aggregator) tick(ctx context.Context) {
	now := a.now().UTC()
	stats := a.sampleStats(ctx, now)
	system := a.sampleSystem(now)

	cache.SetJSON(ctx, a.cache, cache.RealTimeStatsKey, SchemaRealTimeStats, stats, a.ttl)
	cache.SetJSON(ctx, a.cache, cache.SystemMetricsKey, SchemaSystemMetrics, system, a.ttl)

	payload, err := json.Marshal(Event{Stats: stats, System: system})
	if err != nil {
		a.logger.Warn("encode realtime event", zap.Error(err))
		return
	}
	a.cache.Publish(ctx, a.channel, payload)
}

// sampleStats simulates activity figures. The letters-generated figure is
// real when the day's usage counter exists.
func (a *Aggregator) sampleStats(ctx context.Context, now time.Time) RealTimeStats {
	a.mu.Lock()
	active := 40 + a.rng.Intn(160)
	conversions := a.rng.Intn(12)
	revenue := 50 + a.rng.Float64()*450
	a.mu.Unlock()

	var letters int64
	if raw, ok := a.cache.Get(ctx, cache.DailyUsageKey(now)); ok {
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			letters = n
		}
	}

	return RealTimeStats{
		ActiveUsers:      active,
		LettersGenerated: letters,
		Conversions:      conversions,
		Revenue:          revenue,
		Timestamp:        now,
	}
}

func (a *Aggregator) sampleSystem(now time.Time) SystemMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return SystemMetrics{
		CPUUsage:     10 + a.rng.Float64()*60,
		MemoryUsage:  30 + a.rng.Float64()*40,
		ResponseTime: 20 + a.rng.Float64()*180,
		ErrorRate:    a.rng.Float64() * 2,
		Timestamp:    now,
	}
}

// CurrentStats returns the latest activity snapshot, or a synthesized zero
// snapshot when none is cached.
func (a *Aggregator) CurrentStats(ctx context.Context) RealTimeStats {
	var stats RealTimeStats
	if cache.GetJSON(ctx, a.cache, cache.RealTimeStatsKey, SchemaRealTimeStats, &stats) {
		return stats
	}
	return RealTimeStats{Timestamp: a.now().UTC()}
}

// SystemStatus returns the latest system snapshot, or a synthesized zero
// snapshot when none is cached.
func (a *Aggregator) SystemStatus(ctx context.Context) SystemMetrics {
	var m SystemMetrics
	if cache.GetJSON(ctx, a.cache, cache.SystemMetricsKey, SchemaSystemMetrics, &m) {
		return m
	}
	return SystemMetrics{Timestamp: a.now().UTC()}
}

// Channel returns the pub/sub channel snapshots are published on.
func (a *Aggregator) Channel() string { return a.channel }
