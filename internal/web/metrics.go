package web

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	uploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cleaner_uploads_total",
			Help: "Count of files uploaded for cleaning",
		},
	)

	classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_classifications_total",
			Help: "Count of per-category classification results",
		},
		[]string{"status"},
	)

	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_exports_total",
			Help: "Count of export downloads served",
		},
		[]string{"batched"},
	)
)

var metricsOnce sync.Once

func initMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(uploadsTotal)
		prometheus.MustRegister(classificationsTotal)
		prometheus.MustRegister(exportsTotal)
	})
}
