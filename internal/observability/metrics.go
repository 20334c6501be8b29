package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for calculation metrics.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Metrics groups the calculator collectors.
type Metrics struct {
	Calculations *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	Trials       prometheus.Counter
	Reloads      *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
//
// Precondition: reg must not already hold collectors with these names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Calculations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maplecalc_calculations_total",
			Help: "Calculations served, by calculator and result.",
		}, []string{"calculator", "result"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maplecalc_calculation_duration_seconds",
			Help:    "Calculation latency by calculator.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"calculator"}),
		Trials: f.NewCounter(prometheus.CounterOpts{
			Name: "maplecalc_simulation_trials_total",
			Help: "Monte Carlo trials run.",
		}),
		Reloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maplecalc_tables_reloads_total",
			Help: "Reference table reloads, by result.",
		}, []string{"result"}),
	}
}

// Observe records one calculation.
func (m *Metrics) Observe(calculator, result string, elapsed time.Duration) {
	m.Calculations.WithLabelValues(calculator, result).Inc()
	m.Duration.WithLabelValues(calculator).Observe(elapsed.Seconds())
}

// TableReloaded records a reload attempt.
func (m *Metrics) TableReloaded(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Reloads.WithLabelValues(result).Inc()
}
