package oracle

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledgervm"

// Metrics collects scenario run metrics. A nil *Metrics records nothing.
type Metrics struct {
	scenarios    *prometheus.CounterVec
	requirements *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetrics creates the metrics and registers them to given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Number of scenarios run, by result.",
		}, []string{"result"}),
		requirements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requirements_total",
			Help:      "Number of interpreter requirements resolved, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_duration_seconds",
			Help:      "Time taken to run a scenario.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	reg.MustRegister(m.scenarios, m.requirements, m.duration)
	return m
}

// observe records a finished scenario.
func (m *Metrics) observe(res *Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scenarios.WithLabelValues(res.Kind()).Inc()
	m.requirements.WithLabelValues("account").Add(float64(res.Stats.Accounts))
	m.requirements.WithLabelValues("code").Add(float64(res.Stats.Codes))
	m.requirements.WithLabelValues("storage").Add(float64(res.Stats.Storages))
	m.requirements.WithLabelValues("blockhash").Add(float64(res.Stats.BlockHashes))
	m.duration.Observe(elapsed.Seconds())
}
