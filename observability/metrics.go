package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AMMMetrics bundles the collectors tracking pool settlement activity.
type AMMMetrics struct {
	fulfills    *prometheus.CounterVec
	volume      prometheus.Counter
	royalties   prometheus.Counter
	poolsClosed prometheus.Counter
	latency     *prometheus.HistogramVec
}

var (
	ammMetricsOnce sync.Once
	ammRegistry    *AMMMetrics

	moduleAPIOnce sync.Once
	moduleAPIReg  *ModuleAPIMetrics
)

// AMM returns the lazily-initialised metrics registry for the settlement
// engine.
func AMM() *AMMMetrics {
	ammMetricsOnce.Do(func() {
		ammRegistry = &AMMMetrics{
			fulfills: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftamm",
				Subsystem: "engine",
				Name:      "fulfills_total",
				Help:      "Count of fulfillment attempts segmented by outcome.",
			}, []string{"outcome"}),
			volume: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nftamm",
				Subsystem: "engine",
				Name:      "settled_volume_total",
				Help:      "Gross settled volume in smallest native units.",
			}),
			royalties: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nftamm",
				Subsystem: "engine",
				Name:      "royalties_paid_total",
				Help:      "Creator royalties disbursed in smallest native units.",
			}),
			poolsClosed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nftamm",
				Subsystem: "engine",
				Name:      "pools_closed_total",
				Help:      "Count of depleted pools reclaimed after settlement.",
			}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nftamm",
				Subsystem: "engine",
				Name:      "fulfill_duration_seconds",
				Help:      "Latency distribution for fulfillment attempts.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			ammRegistry.fulfills,
			ammRegistry.volume,
			ammRegistry.royalties,
			ammRegistry.poolsClosed,
			ammRegistry.latency,
		)
	})
	return ammRegistry
}

// RecordFulfillSettled records a settled fulfillment along with its gross
// price and royalty disbursement.
func (m *AMMMetrics) RecordFulfillSettled(totalPrice, royaltyPaid uint64, duration time.Duration) {
	if m == nil {
		return
	}
	m.fulfills.WithLabelValues("settled").Inc()
	m.volume.Add(float64(totalPrice))
	m.royalties.Add(float64(royaltyPaid))
	m.latency.WithLabelValues("settled").Observe(duration.Seconds())
}

// RecordFulfillRejected records a fulfillment attempt that aborted with no
// state change.
func (m *AMMMetrics) RecordFulfillRejected(duration time.Duration) {
	if m == nil {
		return
	}
	m.fulfills.WithLabelValues("rejected").Inc()
	m.latency.WithLabelValues("rejected").Observe(duration.Seconds())
}

// RecordPoolClosed increments the pool reclamation counter.
func (m *AMMMetrics) RecordPoolClosed() {
	if m == nil {
		return
	}
	m.poolsClosed.Inc()
}

// ModuleAPIMetrics tracks HTTP module request activity.
type ModuleAPIMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// ModuleAPI returns the lazily-initialised metrics registry used to record
// HTTP module requests.
func ModuleAPI() *ModuleAPIMetrics {
	moduleAPIOnce.Do(func() {
		moduleAPIReg = &ModuleAPIMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftamm",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total HTTP module requests segmented by module, method and outcome.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftamm",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total HTTP module errors segmented by module, method and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nftamm",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for HTTP module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
		}
		prometheus.MustRegister(moduleAPIReg.requests, moduleAPIReg.errors, moduleAPIReg.latency)
	})
	return moduleAPIReg
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status ultimately written to the response writer.
func (m *ModuleAPIMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, strconv.Itoa(status)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}
