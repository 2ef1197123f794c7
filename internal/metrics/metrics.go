package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "opportunity_browser"

var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultDiscoveryDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
)

// Collector owns a private Prometheus registry with the service metrics.
// All methods are safe on a nil receiver so callers may run without metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	signalsIngested     *prometheus.CounterVec
	signalsClustered    prometheus.Counter
	clustersFormed      prometheus.Counter
	candidatesEmitted   prometheus.Counter
	opportunitiesStored prometheus.Counter
	duplicatesSkipped   prometheus.Counter
	notificationsSent   *prometheus.CounterVec
	discoveryRuns       *prometheus.CounterVec
	discoveryDuration   prometheus.Histogram
}

// NewCollector registers every metric on a fresh registry together with the Go runtime
// and process collectors
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request duration",
			Buckets: DefaultHTTPDurationBuckets,
		}, []string{"method", "route"}),
		signalsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "signals_ingested_total", Help: "Market signals received at the ingestion boundary",
		}, []string{"result"}),
		signalsClustered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "signals_clustered_total", Help: "Market signals passed through clustering",
		}),
		clustersFormed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "clusters_formed_total", Help: "Signal clusters formed",
		}),
		candidatesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "candidates_emitted_total", Help: "Opportunity candidates emitted by the engine",
		}),
		opportunitiesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "opportunities_persisted_total", Help: "Opportunities written to storage",
		}),
		duplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "duplicates_skipped_total", Help: "Candidates skipped as duplicates",
		}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_total", Help: "Opportunity notifications attempted",
		}, []string{"result"}),
		discoveryRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "discovery_runs_total", Help: "Discovery runs",
		}, []string{"trigger", "result"}),
		discoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "discovery_duration_seconds", Help: "Discovery run duration",
			Buckets: DefaultDiscoveryDurationBuckets,
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests, c.httpDuration, c.signalsIngested, c.signalsClustered, c.clustersFormed,
		c.candidatesEmitted, c.opportunitiesStored, c.duplicatesSkipped, c.notificationsSent,
		c.discoveryRuns, c.discoveryDuration,
	)
	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) RecordIngestion(accepted, rejected int) {
	if c == nil {
		return
	}
	c.signalsIngested.WithLabelValues("accepted").Add(float64(accepted))
	c.signalsIngested.WithLabelValues("rejected").Add(float64(rejected))
}

// RecordDiscovery records the outcome of one discovery run
func (c *Collector) RecordDiscovery(trigger string, signals, clusters, candidates int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.discoveryRuns.WithLabelValues(trigger, result).Inc()
	c.discoveryDuration.Observe(elapsed.Seconds())
	c.signalsClustered.Add(float64(signals))
	c.clustersFormed.Add(float64(clusters))
	c.candidatesEmitted.Add(float64(candidates))
}

func (c *Collector) RecordPersisted(n int) {
	if c == nil {
		return
	}
	c.opportunitiesStored.Add(float64(n))
}

func (c *Collector) RecordDuplicates(n int) {
	if c == nil {
		return
	}
	c.duplicatesSkipped.Add(float64(n))
}

func (c *Collector) RecordNotification(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.notificationsSent.WithLabelValues("error").Inc()
		return
	}
	c.notificationsSent.WithLabelValues("sent").Inc()
}
