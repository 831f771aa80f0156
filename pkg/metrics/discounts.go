package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DiscountMetrics records reporting-path activity for the discount engine.
type DiscountMetrics struct {
	reconstructed *prometheus.CounterVec
	unresolved    prometheus.Counter
	queryDuration *prometheus.HistogramVec
}

// NewDiscountMetrics registers the discount metrics on the provided registerer.
func NewDiscountMetrics(reg prometheus.Registerer) *DiscountMetrics {
	if reg == nil {
		return &DiscountMetrics{}
	}
	reconstructed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_usage_reconstructed_total",
		Help: "Usage rows whose amount was reconstructed from item prices.",
	}, []string{"kind"})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discount_usage_unresolved_lines_total",
		Help: "Order lines skipped during reconstruction because no base price resolved.",
	})
	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discount_report_duration_seconds",
		Help:    "Duration of discount reporting queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	reg.MustRegister(reconstructed, unresolved, queryDuration)
	return &DiscountMetrics{
		reconstructed: reconstructed,
		unresolved:    unresolved,
		queryDuration: queryDuration,
	}
}

// AddReconstructed increments the reconstructed row counter for the promotion kind.
func (m *DiscountMetrics) AddReconstructed(kind string, n int) {
	if m == nil || m.reconstructed == nil || n <= 0 {
		return
	}
	m.reconstructed.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}

// AddUnresolvedLines counts order lines without a usable base price.
func (m *DiscountMetrics) AddUnresolvedLines(n int) {
	if m == nil || m.unresolved == nil || n <= 0 {
		return
	}
	m.unresolved.Add(float64(n))
}

// ObserveReport records the duration of the named report.
func (m *DiscountMetrics) ObserveReport(report string, duration time.Duration) {
	if m == nil || m.queryDuration == nil {
		return
	}
	m.queryDuration.WithLabelValues(normalizeLabel(report)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
