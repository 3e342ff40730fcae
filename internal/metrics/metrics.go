package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	RecordsLogged    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	Imports          *prometheus.CounterVec
	Exports          *prometheus.CounterVec
	BotMessages      *prometheus.CounterVec
}

// Default returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - vitaltrack_records_logged_total{kind} - meals and symptoms appended
//   - vitaltrack_analysis_duration_seconds{operation} - trend and correlation runs
//   - vitaltrack_imports_total{result} - import attempts by outcome
//   - vitaltrack_exports_total{result} - export attempts by outcome
//   - vitaltrack_bot_messages_total{intent} - inbound WhatsApp messages
func Default() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RecordsLogged: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitaltrack_records_logged_total",
					Help: "Total number of meals and symptoms logged",
				},
				[]string{"kind"},
			),
			AnalysisDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "vitaltrack_analysis_duration_seconds",
					Help:    "Duration of trend and correlation computations in seconds",
					Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
				},
				[]string{"operation"},
			),
			Imports: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitaltrack_imports_total",
					Help: "Total number of data imports by result",
				},
				[]string{"result"},
			),
			Exports: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitaltrack_exports_total",
					Help: "Total number of data exports by result",
				},
				[]string{"result"},
			),
			BotMessages: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitaltrack_bot_messages_total",
					Help: "Total number of inbound WhatsApp messages by intent",
				},
				[]string{"intent"},
			),
		}
	})
	return globalMetrics
}

// ObserveAnalysis records how long operation took since start.
func (m *Metrics) ObserveAnalysis(operation string, start time.Time) {
	m.AnalysisDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Result maps an error to a "success"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
