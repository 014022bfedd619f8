// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package metrics collects simulation statistics as prometheus metrics.
//
package metrics

import (
	"io"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Registry holds the simulation metrics. It implements lsim.Observer.
//
type Registry struct {
	StepsTotal         prometheus.Counter
	EvaluationsTotal   prometheus.Counter
	EvaluationsPerStep prometheus.Histogram
	DirtyComponents    prometheus.Gauge
	ConflictsTotal     prometheus.Counter

	registry *prometheus.Registry
}

var _ lsim.Observer = (*Registry)(nil)

// NewRegistry returns a new Registry backed by its own prometheus registry.
//
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Registry{
		StepsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "lsim_steps_total",
			Help: "Total number of simulation steps",
		}),
		EvaluationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "lsim_component_evaluations_total",
			Help: "Total number of component evaluations",
		}),
		EvaluationsPerStep: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lsim_step_evaluations",
			Help:    "Number of components evaluated per step",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		DirtyComponents: f.NewGauge(prometheus.GaugeOpts{
			Name: "lsim_dirty_components",
			Help: "Number of components scheduled for the next step",
		}),
		ConflictsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "lsim_node_conflicts_total",
			Help: "Total number of nodes resolved to an error state",
		}),
		registry: reg,
	}
}

// StepDone implements lsim.Observer.
//
func (r *Registry) StepDone(_ uint64, evaluated, dirty int) {
	r.StepsTotal.Inc()
	r.EvaluationsTotal.Add(float64(evaluated))
	r.EvaluationsPerStep.Observe(float64(evaluated))
	r.DirtyComponents.Set(float64(dirty))
}

// Conflict implements lsim.Observer.
//
func (r *Registry) Conflict(uint64, lsim.Node) {
	r.ConflictsTotal.Inc()
}

// Gatherer returns the underlying prometheus registry.
//
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// WriteText writes all metrics to w in the prometheus text format.
//
func (r *Registry) WriteText(w io.Writer) error {
	mfs, err := r.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}
