package metrics

import (
	coremetrics "github.com/fjtyk95/bankoptimize/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records optimization runs in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	fee       prometheus.Gauge
	shortfall prometheus.Gauge
	duration  prometheus.Histogram
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_runs_total",
		Help: "Total number of optimization runs by solver status",
	}, []string{"status"})
	fee := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_last_total_fee",
		Help: "Total transfer fee of the most recent run",
	})
	shortfall := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_last_total_shortfall",
		Help: "Total safety-stock shortfall of the most recent run",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_solve_seconds",
		Help:    "Wall-clock duration of the solve stage",
		Buckets: prometheus.DefBuckets,
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fee); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fee = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(shortfall); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			shortfall = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, fee: fee, shortfall: shortfall, duration: duration}, nil
}

// RecordRun updates the run counter, gauges and solve-duration histogram.
func (s *PromSink) RecordRun(res coremetrics.RunResult) error {
	s.runs.WithLabelValues(res.Status).Inc()
	s.fee.Set(float64(res.TotalFee))
	s.shortfall.Set(float64(res.TotalShortfall))
	s.duration.Observe(res.SolveDuration.Seconds())
	return nil
}
