package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aodata/market-ingest/internal/buffer"
	"github.com/aodata/market-ingest/internal/ingest"
	"github.com/aodata/market-ingest/internal/maintenance"
)

// Metrics owns the registry all pipeline collectors register on.
type Metrics struct {
	registry      *prometheus.Registry
	cycleDuration *prometheus.HistogramVec
}

// New creates a registry with the standard process and Go collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cycleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_cycle_duration_seconds",
		Help:    "Time spent per drain cycle, from drain to commit.",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})
	reg.MustRegister(cycleDuration)

	return &Metrics{
		registry:      reg,
		cycleDuration: cycleDuration,
	}
}

// CycleObserver returns a callback recording one drain-cycle duration for
// the feed. The processors call it once per completed cycle.
func (m *Metrics) CycleObserver(feed string) func(time.Duration) {
	h := m.cycleDuration.WithLabelValues(feed)
	return func(d time.Duration) {
		h.Observe(d.Seconds())
	}
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIntake exports the feed's buffer size and lifetime push/drain
// totals. The collectors read the buffer's own stats at scrape time.
func (m *Metrics) ObserveIntake(feed string, buf *buffer.Intake[[]byte]) {
	labels := prometheus.Labels{"feed": feed}

	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "ingest_intake_buffer_size",
			Help:        "Messages currently waiting in the intake buffer.",
			ConstLabels: labels,
		}, func() float64 { return float64(buf.Len()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "ingest_intake_pushed_total",
			Help:        "Messages pushed into the intake buffer.",
			ConstLabels: labels,
		}, func() float64 { return float64(buf.Stats().TotalPushed) }),
	)
}

// ProcessorStats is satisfied by both batch processors.
type ProcessorStats interface {
	Stats() ingest.Metrics
}

// ObserveProcessor exports the feed's batch-processor counters.
func (m *Metrics) ObserveProcessor(feed string, p ProcessorStats) {
	labels := prometheus.Labels{"feed": feed}

	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "ingest_cycles_total",
			Help:        "Completed drain cycles.",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().Cycles) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "ingest_rows_upserted_total",
			Help:        "Rows reported affected by bulk upserts.",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().RowsUpserted) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "ingest_decode_errors_total",
			Help:        "Messages dropped as unparseable.",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().DecodeErrors) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "ingest_store_errors_total",
			Help:        "Batches dropped on transaction failure.",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().StoreErrors) }),
	)
}

// ObserveSweeper exports the expiry sweeper's counters.
func (m *Metrics) ObserveSweeper(s *maintenance.Sweeper) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "maintenance_sweep_rows_deleted_total",
			Help: "Market orders deleted by expiry sweeps.",
		}, func() float64 { return float64(s.Stats().RowsDeleted) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "maintenance_sweep_errors_total",
			Help: "Failed sweep cycles.",
		}, func() float64 { return float64(s.Stats().Errors) }),
	)
}

// ObserveRefresher exports the aggregate refresher's counters.
func (m *Metrics) ObserveRefresher(r *maintenance.Refresher) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "maintenance_refresh_total",
			Help: "Completed aggregate refresh cycles.",
		}, func() float64 { return float64(r.Stats().Refreshes) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "maintenance_refresh_errors_total",
			Help: "Failed aggregate refresh cycles.",
		}, func() float64 { return float64(r.Stats().Errors) }),
	)
}
