package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager owns every Prometheus collector of the service.
// All methods are safe on a nil *Manager and then do nothing.
type Manager struct {
	namespace      string
	latencyBuckets []float64
	registry       *prometheus.Registry

	// Embedding
	embeddingRequests  *prometheus.CounterVec
	embeddingLatency   *prometheus.HistogramVec
	embeddingBatchSize prometheus.Histogram
	embeddingCacheHits prometheus.Counter
	embeddingCacheMiss prometheus.Counter

	// Evaluation
	evaluations       *prometheus.CounterVec
	evaluationScore   prometheus.Histogram
	semanticFailures  prometheus.Counter
	personasGenerated prometheus.Counter

	// Ingestion and search
	sourcesIngested *prometheus.CounterVec
	chunksStored    prometheus.Counter
	searchRequests  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager registered on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "persona",
		latencyBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.embeddingRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding batch calls by provider and outcome",
	}, []string{"provider", "outcome"})

	m.embeddingLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "embedding",
		Name:      "latency_seconds",
		Help:      "Embedding batch call latency in seconds",
		Buckets:   m.latencyBuckets,
	}, []string{"provider"})

	m.embeddingBatchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "embedding",
		Name:      "batch_size",
		Help:      "Number of texts per embedding batch",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	})

	m.embeddingCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "embedding",
		Name:      "cache_hits_total",
		Help:      "Texts served from the embedding cache",
	})

	m.embeddingCacheMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "embedding",
		Name:      "cache_misses_total",
		Help:      "Texts that had to be sent to the embedding provider",
	})

	m.evaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "evaluation",
		Name:      "runs_total",
		Help:      "Persona set evaluations by outcome",
	}, []string{"outcome"})

	m.evaluationScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "evaluation",
		Name:      "overall_score",
		Help:      "Distribution of overall persona set scores",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.semanticFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "evaluation",
		Name:      "semantic_failures_total",
		Help:      "Evaluations whose semantic diversity metric could not be computed",
	})

	m.personasGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "generation",
		Name:      "personas_total",
		Help:      "Personas produced by the generator",
	})

	m.sourcesIngested = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingestion",
		Name:      "sources_total",
		Help:      "Ingested data sources by type",
	}, []string{"source_type"})

	m.chunksStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingestion",
		Name:      "chunks_total",
		Help:      "Text chunks produced by ingestion",
	})

	m.searchRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Search backend queries by backend and outcome",
	}, []string{"backend", "outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the manager's registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEmbedding records one embedding batch call.
func (m *Manager) RecordEmbedding(provider string, batchSize int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.embeddingRequests.WithLabelValues(provider, outcome(err)).Inc()
	m.embeddingLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	m.embeddingBatchSize.Observe(float64(batchSize))
}

// RecordCache records cache hits and misses for one lookup batch.
func (m *Manager) RecordCache(hits, misses int) {
	if m == nil {
		return
	}
	m.embeddingCacheHits.Add(float64(hits))
	m.embeddingCacheMiss.Add(float64(misses))
}

// RecordEvaluation records a completed evaluation.
func (m *Manager) RecordEvaluation(overallScore float64, semanticFailed bool) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(OutcomeSuccess).Inc()
	m.evaluationScore.Observe(overallScore)
	if semanticFailed {
		m.semanticFailures.Inc()
	}
}

// RecordEvaluationRejected records an evaluation refused for invalid input.
func (m *Manager) RecordEvaluationRejected() {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(OutcomeFailure).Inc()
}

// RecordPersonasGenerated adds to the generated persona count.
func (m *Manager) RecordPersonasGenerated(n int) {
	if m == nil {
		return
	}
	m.personasGenerated.Add(float64(n))
}

// RecordIngestion records one stored source and its chunks.
func (m *Manager) RecordIngestion(sourceType string, chunks int) {
	if m == nil {
		return
	}
	m.sourcesIngested.WithLabelValues(sourceType).Inc()
	m.chunksStored.Add(float64(chunks))
}

// RecordSearch records one search backend query.
func (m *Manager) RecordSearch(backend string, err error) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(backend, outcome(err)).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
