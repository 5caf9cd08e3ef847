// Package metrics holds the prometheus collectors of the attendance pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "absen"

type Metrics struct {
	taps          *prometheus.CounterVec
	notifications *prometheus.CounterVec
	photoJobs     *prometheus.CounterVec
	tasks         *prometheus.CounterVec
	queueDepth    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		taps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "taps_total",
			Help:      "Card taps by outcome.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification send attempts by channel type and status.",
		}, []string{"channel", "status"}),
		photoJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_jobs_total",
			Help:      "Photo pipeline runs by outcome.",
		}, []string{"result"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Background tasks by name and outcome.",
		}, []string{"task", "result"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_queue_depth",
			Help:      "Background tasks waiting for a worker.",
		}),
	}
	reg.MustRegister(m.taps, m.notifications, m.photoJobs, m.tasks, m.queueDepth)
	return m
}

func (m *Metrics) Tap(result string) {
	if m == nil {
		return
	}
	m.taps.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) PhotoJob(result string) {
	if m == nil {
		return
	}
	m.photoJobs.WithLabelValues(result).Inc()
}

func (m *Metrics) Task(name, result string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(name, result).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
