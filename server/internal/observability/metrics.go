package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects in-process counters for the conversation service.
type Metrics struct {
	mu sync.Mutex

	modelCalls    atomic.Int64
	modelFailures atomic.Int64
	tokensUsed    atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	cacheErrors   atomic.Int64

	operations map[string]*OperationMetrics

	// Ring of recent model call durations.
	durations    []time.Duration
	maxDurations int
}

// OperationMetrics represents metrics for one orchestrator operation.
type OperationMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		operations:   make(map[string]*OperationMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordModelCall records a model invocation and its outcome.
func (m *Metrics) RecordModelCall(duration time.Duration, tokens int, err error) {
	m.modelCalls.Add(1)
	if err != nil {
		m.modelFailures.Add(1)
	} else {
		m.tokensUsed.Add(int64(tokens))
	}

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordCacheError records a failed cache write or invalidation.
func (m *Metrics) RecordCacheError() {
	m.cacheErrors.Add(1)
}

// RecordOperation records a completed orchestrator operation.
func (m *Metrics) RecordOperation(operation string, duration time.Duration, err error) {
	om := m.getOperationMetrics(operation)
	om.count.Add(1)
	om.totalDuration.Add(duration.Milliseconds())
	if err != nil {
		om.errorCount.Add(1)
	}
}

func (m *Metrics) getOperationMetrics(operation string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.operations[operation]
	if !ok {
		om = &OperationMetrics{}
		m.operations[operation] = om
	}
	return om
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.modelCalls.Store(0)
	m.modelFailures.Store(0)
	m.tokensUsed.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.cacheErrors.Store(0)

	m.mu.Lock()
	m.operations = make(map[string]*OperationMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	operations := make(map[string]*OperationMetricsSnapshot, len(m.operations))
	for name, om := range m.operations {
		count := om.count.Load()
		total := om.totalDuration.Load()
		var avg int64
		if count > 0 {
			avg = total / count
		}
		operations[name] = &OperationMetricsSnapshot{
			Count:           count,
			TotalDurationMs: total,
			ErrorCount:      om.errorCount.Load(),
			AverageMs:       avg,
		}
	}

	var sum time.Duration
	for _, d := range m.durations {
		sum += d
	}
	var avgModel int64
	if len(m.durations) > 0 {
		avgModel = (sum / time.Duration(len(m.durations))).Milliseconds()
	}

	return &MetricsSnapshot{
		ModelCalls:         m.modelCalls.Load(),
		ModelFailures:      m.modelFailures.Load(),
		TokensUsed:         m.tokensUsed.Load(),
		CacheHits:          m.cacheHits.Load(),
		CacheMisses:        m.cacheMisses.Load(),
		CacheErrors:        m.cacheErrors.Load(),
		ModelAverageMs:     avgModel,
		ModelDurationCount: len(m.durations),
		Operations:         operations,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ModelCalls         int64                                `json:"model_calls"`
	ModelFailures      int64                                `json:"model_failures"`
	TokensUsed         int64                                `json:"tokens_used"`
	CacheHits          int64                                `json:"cache_hits"`
	CacheMisses        int64                                `json:"cache_misses"`
	CacheErrors        int64                                `json:"cache_errors"`
	ModelAverageMs     int64                                `json:"model_average_ms"`
	ModelDurationCount int                                  `json:"model_duration_count"`
	Operations         map[string]*OperationMetricsSnapshot `json:"operations"`
}

// OperationMetricsSnapshot represents metrics for one operation.
type OperationMetricsSnapshot struct {
	Count           int64 `json:"count"`
	TotalDurationMs int64 `json:"total_duration_ms"`
	ErrorCount      int64 `json:"error_count"`
	AverageMs       int64 `json:"average_ms"`
}

// ModelSuccessRate returns the model call success rate as a percentage (0-100).
func (s *MetricsSnapshot) ModelSuccessRate() float64 {
	if s.ModelCalls == 0 {
		return 100.0
	}
	return float64(s.ModelCalls-s.ModelFailures) / float64(s.ModelCalls) * 100.0
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
func (s *MetricsSnapshot) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100.0
}
