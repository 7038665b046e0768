// Package metrics counts per-run outcomes and can write them in the
// node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "featurebump"

// Recorder methods are safe to call on a nil *Recorder.
type Recorder struct {
	reg      *prometheus.Registry
	features *prometheus.CounterVec
	fetches  *prometheus.CounterVec
	updated  prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_total",
			Help:      "Features processed, by outcome.",
		}, []string{"status"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Version source requests, by strategy kind and result.",
		}, []string{"kind", "result"}),
		updated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updated",
			Help:      "1 when at least one descriptor was rewritten in the last run.",
		}),
	}
	r.reg.MustRegister(r.features, r.fetches, r.updated)
	return r
}

func (r *Recorder) Feature(status string) {
	if r == nil {
		return
	}
	r.features.WithLabelValues(status).Inc()
}

func (r *Recorder) Fetch(kind string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetches.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) SetUpdated(updated bool) {
	if r == nil {
		return
	}
	if updated {
		r.updated.Set(1)
		return
	}
	r.updated.Set(0)
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
