package storage

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram tracks latency distribution with percentile support
type Histogram struct {
	samples []float64 // Latencies in microseconds
	mu sync.Mutex
	maxSize int // Maximum samples to retain
}

// NewHistogram creates a new histogram with a max sample size
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000 // Default: keep last 10k samples
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a latency sample (in microseconds)
func (h *Histogram) Record(latencyUs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// If at capacity, remove oldest sample (FIFO)
	if len(h.samples) >= h.maxSize {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}

	h.samples = append(h.samples, latencyUs)
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == 0 {
		return 0
	}

	sorted := make([]float64, len(h.samples))
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation between lower and upper
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Mean calculates the average latency
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range h.samples {
		sum += v
	}
	return sum / float64(len(h.samples))
}

// Count returns the number of samples
func (h *Histogram) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.samples)
}

// Reset clears all samples
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
}

// HistogramSnapshot holds current percentile statistics
type HistogramSnapshot struct {
	Count int
	Mean float64
	P50 float64 // Median
	P95 float64
	P99 float64
}

// Snapshot captures current histogram statistics
func (h *Histogram) Snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Count: h.Count(),
		Mean: h.Mean(),
		P50: h.Percentile(50),
		P95: h.Percentile(95),
		P99: h.Percentile(99),
	}
}

// Metrics tracks buffer pool performance metrics
type Metrics struct {
	cacheHits atomic.Uint64
	cacheMisses atomic.Uint64
	pageEvictions atomic.Uint64
	dirtyPageFlushes atomic.Uint64
	pagesDeleted atomic.Uint64

	// Latency Histograms (microseconds)
	pageFetchLatency *Histogram // FetchPage latency
	pageFlushLatency *Histogram // FlushPage latency

	startTime time.Time
	mu sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		pageFetchLatency: NewHistogram(10000),
		pageFlushLatency: NewHistogram(10000),
	}
}

func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

func (m *Metrics) RecordPageEviction() {
	m.pageEvictions.Add(1)
}

func (m *Metrics) RecordDirtyPageFlush() {
	m.dirtyPageFlushes.Add(1)
}

func (m *Metrics) RecordPageDeletion() {
	m.pagesDeleted.Add(1)
}

// RecordPageFetchLatency records the latency of a page fetch operation
func (m *Metrics) RecordPageFetchLatency(duration time.Duration) {
	m.pageFetchLatency.Record(float64(duration.Microseconds()))
}

// RecordPageFlushLatency records the latency of a page flush operation
func (m *Metrics) RecordPageFlushLatency(duration time.Duration) {
	m.pageFlushLatency.Record(float64(duration.Microseconds()))
}

// Getters

func (m *Metrics) GetCacheHits() uint64 {
	return m.cacheHits.Load()
}

func (m *Metrics) GetCacheMisses() uint64 {
	return m.cacheMisses.Load()
}

func (m *Metrics) GetCacheHitRate() float64 {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

func (m *Metrics) GetPageEvictions() uint64 {
	return m.pageEvictions.Load()
}

func (m *Metrics) GetDirtyPageFlushes() uint64 {
	return m.dirtyPageFlushes.Load()
}

func (m *Metrics) GetPagesDeleted() uint64 {
	return m.pagesDeleted.Load()
}

func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// GetPageFetchLatency returns snapshot of page fetch latency distribution
func (m *Metrics) GetPageFetchLatency() HistogramSnapshot {
	return m.pageFetchLatency.Snapshot()
}

// GetPageFlushLatency returns snapshot of page flush latency distribution
func (m *Metrics) GetPageFlushLatency() HistogramSnapshot {
	return m.pageFlushLatency.Snapshot()
}

// LogMetrics logs all metrics using structured logging
func (m *Metrics) LogMetrics(logger *slog.Logger) {
	pageFetch := m.GetPageFetchLatency()
	pageFlush := m.GetPageFlushLatency()

	logger.Info("Buffer Pool Metrics",
		slog.Group("buffer_pool",
			slog.Uint64("cache_hits", m.GetCacheHits()),
			slog.Uint64("cache_misses", m.GetCacheMisses()),
			slog.Float64("cache_hit_rate", m.GetCacheHitRate()),
			slog.Uint64("page_evictions", m.GetPageEvictions()),
			slog.Uint64("dirty_page_flushes", m.GetDirtyPageFlushes()),
			slog.Uint64("pages_deleted", m.GetPagesDeleted()),
		),
		slog.Group("latency_us",
			slog.Group("page_fetch",
				slog.Int("count", pageFetch.Count),
				slog.Float64("mean", pageFetch.Mean),
				slog.Float64("p50", pageFetch.P50),
				slog.Float64("p95", pageFetch.P95),
				slog.Float64("p99", pageFetch.P99),
			),
			slog.Group("page_flush",
				slog.Int("count", pageFlush.Count),
				slog.Float64("mean", pageFlush.Mean),
				slog.Float64("p95", pageFlush.P95),
				slog.Float64("p99", pageFlush.P99),
			),
		),
		slog.Duration("uptime", m.GetUptime()),
	)
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.pageEvictions.Store(0)
	m.dirtyPageFlushes.Store(0)
	m.pagesDeleted.Store(0)

	m.pageFetchLatency.Reset()
	m.pageFlushLatency.Reset()

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
