// Package obs carries the engine's ambient observability stack:
// prometheus metrics and a zap structured logger, adapted from the
// teacher's internal/obs/metrics.go (same promauto registration style,
// retargeted from vector-search counters to substrate/pipeline ones).
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram/gauge the engine registers.
type Metrics struct {
	ChunksRead     prometheus.Counter
	ChunksWritten  prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	BytesRead      prometheus.Counter
	BytesWritten   prometheus.Counter
	PipelineStage  *prometheus.HistogramVec
	PipelineErrors *prometheus.CounterVec
}

// NewMetrics registers and returns the engine's metric set.
func NewMetrics() *Metrics {
	return &Metrics{
		ChunksRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exodus_chunks_read_total",
			Help: "Total substrate chunks read from the cache or disk.",
		}),
		ChunksWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exodus_chunks_written_total",
			Help: "Total substrate chunks appended to a container.",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exodus_chunk_cache_hits_total",
			Help: "Total chunk cache hits.",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exodus_chunk_cache_misses_total",
			Help: "Total chunk cache misses.",
		}),
		BytesRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exodus_bytes_read_total",
			Help: "Total bytes read from substrate containers.",
		}),
		BytesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exodus_bytes_written_total",
			Help: "Total bytes written to substrate containers.",
		}),
		PipelineStage: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "exodus_pipeline_stage_seconds",
			Help: "Wall-clock duration of each transform pipeline stage.",
		}, []string{"stage"}),
		PipelineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "exodus_pipeline_errors_total",
			Help: "Total transform pipeline stage failures.",
		}, []string{"stage"}),
	}
}
