package observability

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// Metric names, without the namespace prefix.
const (
	MetricHTTPRequests   = "http_requests_total"
	MetricHTTPDuration   = "http_request_duration_seconds"
	MetricDBQueries      = "db_queries_total"
	MetricDBDuration     = "db_query_duration_seconds"
	MetricTodosCreated   = "todos_created_total"
	MetricTodosCompleted = "todos_completed_total"
	MetricTodosDeleted   = "todos_deleted_total"
)

var (
	httpBuckets = []float64{0.001, 0.005, 0.015, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1, 2, 5}
	dbBuckets   = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// DefaultNamespace prefixes every series of the process-wide collector.
const DefaultNamespace = "api"

var (
	defaultCollector     *Collector
	defaultCollectorOnce sync.Once
)

// DefaultCollector returns the process-wide collector, creating it on first use.
// It is never reset; tests that need isolation use NewCollector.
func DefaultCollector() *Collector {
	defaultCollectorOnce.Do(func() {
		defaultCollector = NewCollector(DefaultNamespace, WithRuntimeMetrics())
	})
	return defaultCollector
}

// Collector holds all Prometheus metrics for the application
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Data access metrics
	DBQueries  *prometheus.CounterVec
	DBDuration *prometheus.HistogramVec

	// Business metrics
	TodosCreated   prometheus.Counter
	TodosCompleted prometheus.Counter
	TodosDeleted   prometheus.Counter

	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

type collectorOptions struct {
	runtime bool
}

// CollectorOption configures NewCollector.
type CollectorOption func(*collectorOptions)

// WithRuntimeMetrics registers the Go runtime and process collectors.
func WithRuntimeMetrics() CollectorOption {
	return func(o *collectorOptions) { o.runtime = true }
}

// NewCollector creates a collector backed by its own registry.
func NewCollector(namespace string, opts ...CollectorOption) *Collector {
	var o collectorOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Collector{
		namespace:  namespace,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	c.HTTPRequests = c.mustCounter(MetricHTTPRequests, "Total number of HTTP requests",
		"method", "route", "status_code")
	c.HTTPDuration = c.mustHistogram(MetricHTTPDuration, "Duration of HTTP requests in seconds",
		httpBuckets, "method", "route", "status_code")

	c.DBQueries = c.mustCounter(MetricDBQueries, "Total number of database queries",
		"operation", "table")
	c.DBDuration = c.mustHistogram(MetricDBDuration, "Duration of database queries in seconds",
		dbBuckets, "operation", "table")

	c.TodosCreated = c.mustCounter(MetricTodosCreated, "Total number of todos created").WithLabelValues()
	c.TodosCompleted = c.mustCounter(MetricTodosCompleted, "Total number of todos completed").WithLabelValues()
	c.TodosDeleted = c.mustCounter(MetricTodosDeleted, "Total number of todos deleted").WithLabelValues()

	if o.runtime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return c
}

func (c *Collector) mustCounter(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	c.registry.MustRegister(vec)
	c.counters[name] = vec
	return vec
}

func (c *Collector) mustHistogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	c.registry.MustRegister(vec)
	c.histograms[name] = vec
	return vec
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// IncrementCounter increments the named counter by 1.
// Names not known yet are registered on first use with the given label keys.
func (c *Collector) IncrementCounter(name string, labels map[string]string) error {
	vec, err := c.counterFor(name, labels)
	if err != nil {
		return err
	}
	counter, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("counter %s: %w", name, err)
	}
	counter.Inc()
	return nil
}

// ObserveHistogram records value in the named histogram.
// Names not known yet are registered on first use with default buckets.
func (c *Collector) ObserveHistogram(name string, labels map[string]string, value float64) error {
	vec, err := c.histogramFor(name, labels)
	if err != nil {
		return err
	}
	observer, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("histogram %s: %w", name, err)
	}
	observer.Observe(value)
	return nil
}

func (c *Collector) counterFor(name string, labels map[string]string) (*prometheus.CounterVec, error) {
	c.mu.RLock()
	vec, ok := c.counters[name]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if vec, ok := c.counters[name]; ok {
		return vec, nil
	}
	vec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      "Counter " + name,
	}, labelKeys(labels))
	if err := c.registry.Register(vec); err != nil {
		return nil, fmt.Errorf("register counter %s: %w", name, err)
	}
	c.counters[name] = vec
	return vec, nil
}

func (c *Collector) histogramFor(name string, labels map[string]string) (*prometheus.HistogramVec, error) {
	c.mu.RLock()
	vec, ok := c.histograms[name]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if vec, ok := c.histograms[name]; ok {
		return vec, nil
	}
	vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      "Histogram " + name,
		Buckets:   prometheus.DefBuckets,
	}, labelKeys(labels))
	if err := c.registry.Register(vec); err != nil {
		return nil, fmt.Errorf("register histogram %s: %w", name, err)
	}
	c.histograms[name] = vec
	return vec, nil
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType is the media type of Export's output.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Export renders every registered series in the Prometheus text format.
func (c *Collector) Export() ([]byte, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

// FullName returns the exported name of a metric, including the namespace.
func (c *Collector) FullName(name string) string {
	if c.namespace == "" {
		return name
	}
	return strings.Join([]string{c.namespace, name}, "_")
}
