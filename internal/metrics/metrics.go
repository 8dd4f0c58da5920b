package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SearchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trovebot",
		Name:      "search_requests_total",
		Help:      "Search API calls by kind (count, fetch, facet) and outcome.",
	}, []string{"kind", "outcome"})

	SearchRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trovebot",
		Name:      "search_retries_total",
		Help:      "Search API attempts that were retried after a transient failure.",
	})

	NarrowingRounds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trovebot",
		Name:      "narrowing_rounds",
		Help:      "Facet narrowing rounds per invocation.",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7},
	})

	Invocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trovebot",
		Name:      "invocations_total",
		Help:      "Bot invocations by outcome.",
	}, []string{"outcome"})

	InvocationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trovebot",
		Name:      "invocation_duration_seconds",
		Help:      "Wall time of a full bot invocation.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(SearchRequests, SearchRetries, NarrowingRounds, Invocations, InvocationDuration)
}

type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalInvocations  int64
	ArticlesFound     int64
	NoCandidate       int64
	DuplicatesSkipped int64
	PublishFailures   int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	LastArticleID string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementInvocations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalInvocations++
}

func (m *Metrics) RecordArticleFound(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFound++
	m.LastArticleID = id
	Invocations.WithLabelValues("found").Inc()
}

func (m *Metrics) IncrementNoCandidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NoCandidate++
	Invocations.WithLabelValues("no_candidate").Inc()
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementPublishFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishFailures++
	Invocations.WithLabelValues("publish_failed").Inc()
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
	InvocationDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_invocations":          m.TotalInvocations,
		"articles_found":             m.ArticlesFound,
		"no_candidate":               m.NoCandidate,
		"duplicates_skipped":         m.DuplicatesSkipped,
		"publish_failures":           m.PublishFailures,
		"last_article_id":            m.LastArticleID,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
