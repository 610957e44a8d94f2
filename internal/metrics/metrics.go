// Package metrics exposes Prometheus metrics for the notification engine.
//
// Metrics:
//   - taskboard_notifications_created_total{kind} - notifications written per rule
//   - taskboard_cycle_user_failures_total{cycle} - users whose processing failed
//   - taskboard_cycle_duration_seconds{cycle} - wall time of a whole cycle
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nhle/taskboard/internal/model"
)

// Cycle names used as the "cycle" label.
const (
	CycleFrequent = "frequent"
	CycleWeekly   = "weekly"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	NotificationsCreated *prometheus.CounterVec
	UserFailures         *prometheus.CounterVec
	CycleDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_notifications_created_total",
				Help: "Total number of notifications created by the engine",
			},
			[]string{"kind"},
		),
		UserFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_cycle_user_failures_total",
				Help: "Total number of users whose processing failed during a cycle",
			},
			[]string{"cycle"},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskboard_cycle_duration_seconds",
				Help:    "Duration of a notification cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"cycle"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.NotificationsCreated, m.UserFailures, m.CycleDuration)
	}
	return m
}

// RecordNotifications counts each notification by kind.
func (m *Metrics) RecordNotifications(ns []model.Notification) {
	if m == nil {
		return
	}
	for _, n := range ns {
		m.NotificationsCreated.WithLabelValues(string(n.Kind)).Inc()
	}
}

// RecordUserFailure counts one failed user for cycle.
func (m *Metrics) RecordUserFailure(cycle string) {
	if m == nil {
		return
	}
	m.UserFailures.WithLabelValues(cycle).Inc()
}

// ObserveCycle records how long cycle took since start.
func (m *Metrics) ObserveCycle(cycle string, start, end time.Time) {
	if m == nil {
		return
	}
	m.CycleDuration.WithLabelValues(cycle).Observe(end.Sub(start).Seconds())
}
