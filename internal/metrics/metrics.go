// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts what a batch run did and writes the counters in
// the Prometheus text format for the node exporter textfile collector.
//
// All Recorder methods are safe on a nil receiver so jobs can run without
// metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hra_relations"

// Recorder holds the counters of one CLI invocation.
type Recorder struct {
	reg *prometheus.Registry

	items       *prometheus.CounterVec
	collisions  *prometheus.CounterVec
	relations   *prometheus.CounterVec
	apiFailures prometheus.Counter
	edges       *prometheus.GaugeVec
	duration    *prometheus.GaugeVec
	lastRun     *prometheus.GaugeVec
}

// New registers the run metrics on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Models or placements processed, by job and outcome.",
		}, []string{"job", "status"}),
		collisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collisions_total",
			Help:      "Collisions reported by the detector or the collision API.",
		}, []string{"job"}),
		relations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relations_total",
			Help:      "Relation edges written to the relations table.",
		}, []string{"job"}),
		apiFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collision_api_failures_total",
			Help:      "Collision API calls that failed and were treated as no collisions.",
		}),
		edges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validated_edges",
			Help:      "Unique relationships by validation outcome in the last validation run.",
		}, []string{"status"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run of each job.",
		}, []string{"job"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run of each job finished.",
		}, []string{"job"}),
	}
	r.reg.MustRegister(r.items, r.collisions, r.relations, r.apiFailures, r.edges, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Item counts one processed model or placement.
func (r *Recorder) Item(job, status string) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(job, status).Inc()
}

// Collisions adds n reported collisions.
func (r *Recorder) Collisions(job string, n int) {
	if r == nil {
		return
	}
	r.collisions.WithLabelValues(job).Add(float64(n))
}

// Relations adds n written relation edges.
func (r *Recorder) Relations(job string, n int) {
	if r == nil {
		return
	}
	r.relations.WithLabelValues(job).Add(float64(n))
}

// APIFailure counts one failed collision API call.
func (r *Recorder) APIFailure() {
	if r == nil {
		return
	}
	r.apiFailures.Inc()
}

// Edges records the number of unique relationships with a given status.
func (r *Recorder) Edges(status string, n int) {
	if r == nil {
		return
	}
	r.edges.WithLabelValues(status).Set(float64(n))
}

// Finish records the duration of a job that started at start.
func (r *Recorder) Finish(job string, start time.Time) {
	if r == nil {
		return
	}
	now := time.Now()
	r.duration.WithLabelValues(job).Set(now.Sub(start).Seconds())
	r.lastRun.WithLabelValues(job).Set(float64(now.Unix()))
}

// WriteTextfile writes all metrics to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
