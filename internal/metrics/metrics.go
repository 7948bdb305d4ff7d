package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics for production monitoring
var (
	// Generation pipeline metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motivai_generations_total",
			Help: "Total number of generation pipeline runs",
		},
		[]string{"kind", "status"}, // kind: cover_letter/cv_analysis, status: ok/degraded/failed/invalid
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motivai_generation_duration_seconds",
			Help:    "End-to-end generation pipeline duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~8min
		},
		[]string{"kind"},
	)

	// LLM metrics
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motivai_llm_requests_total",
			Help: "Total number of LLM API requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motivai_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motivai_llm_tokens_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: input/output
	)

	// Cache metrics
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motivai_cache_ops_total",
			Help: "Total cache operations by outcome",
		},
		[]string{"op", "result"}, // op: get/set/incr/del/publish, result: hit/miss/ok/error
	)
)
