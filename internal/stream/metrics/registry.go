package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Dispatch setup metrics
	setupTotal    *prometheus.CounterVec
	setupBranches prometheus.Histogram

	// Pipeline metrics
	sourceEventsTotal prometheus.Counter
	branchEventsTotal *prometheus.CounterVec
	actionDuration    *prometheus.HistogramVec
	terminalTotal     *prometheus.CounterVec

	// Subscription metrics
	subscriptionsActive prometheus.Gauge
	subscriptionsTotal  prometheus.Counter

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		setupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_setup_total",
				Help: "Total number of dispatch wiring operations",
			},
			[]string{"status"}, // status: success, error
		),

		setupBranches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dispatch_setup_branches",
				Help:    "Number of branches per dispatch wiring",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),

		sourceEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_source_events_total",
				Help: "Total number of events produced by tapped sources; the difference to the sum of branch events is the number of silently dropped events",
			},
		),

		branchEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_branch_events_total",
				Help: "Total number of events claimed per branch",
			},
			[]string{"branch", "status"}, // status: success, error
		),

		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_branch_action_duration_seconds",
				Help:    "Time spent in branch actions",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"branch"},
		),

		terminalTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_terminal_total",
				Help: "Total number of terminal signals delivered by merged output sequences",
			},
			[]string{"signal"}, // signal: complete, error
		),

		subscriptionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_subscriptions_active",
				Help: "Current number of live subscriptions to merged output sequences",
			},
		),

		subscriptionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_subscriptions_total",
				Help: "Total number of subscriptions made to merged output sequences",
			},
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dispatch_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Register application metrics
	registry.MustRegister(
		r.setupTotal,
		r.setupBranches,
		r.sourceEventsTotal,
		r.branchEventsTotal,
		r.actionDuration,
		r.terminalTotal,
		r.subscriptionsActive,
		r.subscriptionsTotal,
		r.systemInfo,
		r.startTime,
	)

	// Set start time
	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// RecordDispatchSetup records one dispatch wiring operation
func (r *Registry) RecordDispatchSetup(branches int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.setupTotal.WithLabelValues(status).Inc()
	if err == nil {
		r.setupBranches.Observe(float64(branches))
	}
}

// RecordSourceEvent records one event produced by a tapped source
func (r *Registry) RecordSourceEvent() {
	r.sourceEventsTotal.Inc()
}

// RecordBranchEvent records one event claimed by a branch, along with the
// time its action took
func (r *Registry) RecordBranchEvent(branch string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.branchEventsTotal.WithLabelValues(branch, status).Inc()
	if err == nil {
		r.actionDuration.WithLabelValues(branch).Observe(duration.Seconds())
	}
}

// RecordTerminal records a terminal signal on a merged output sequence
func (r *Registry) RecordTerminal(err error) {
	signal := "complete"
	if err != nil {
		signal = "error"
	}

	r.terminalTotal.WithLabelValues(signal).Inc()
}

// SubscriptionOpened records a new subscription to a merged output sequence
func (r *Registry) SubscriptionOpened() {
	r.subscriptionsTotal.Inc()
	r.subscriptionsActive.Inc()
}

// SubscriptionClosed records the end of a subscription to a merged output sequence
func (r *Registry) SubscriptionClosed() {
	r.subscriptionsActive.Dec()
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}
