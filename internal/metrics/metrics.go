// Package metrics provides Prometheus metrics for the persistence and scheduling layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkoutsLogged counts workout history entries appended.
	WorkoutsLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "history",
			Name:      "workouts_logged_total",
			Help:      "Total number of workout history entries appended",
		},
	)

	// HistoryEventsDropped counts history events not delivered because a subscriber buffer was full.
	HistoryEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "history",
			Name:      "events_dropped_total",
			Help:      "History change events dropped for slow subscribers",
		},
	)

	// NotificationsSent counts notifications handed to the platform.
	// Labels: kind (meal, workout)
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "notify",
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications fired by kind",
		},
		[]string{"kind"},
	)

	// LedgerPruned counts sent-notification ledger days removed by retention cleanup.
	// Labels: kind (meal, workout)
	LedgerPruned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "notify",
			Name:      "ledger_days_pruned_total",
			Help:      "Sent-notification ledger days removed by retention cleanup",
		},
		[]string{"kind"},
	)

	// SchedulerTicks counts poller invocations.
	// Labels: scheduler (meal, workout)
	SchedulerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Number of due checks run by each scheduler",
		},
		[]string{"scheduler"},
	)

	// Migrations counts legacy data migrations by result.
	// Labels: result (migrated, already_done, nothing_to_migrate)
	Migrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "userdata",
			Name:      "migrations_total",
			Help:      "Legacy data migration attempts by result",
		},
		[]string{"result"},
	)

	// StreamSubscribers tracks open notification stream subscribers.
	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fitlog",
			Subsystem: "notify",
			Name:      "stream_subscribers",
			Help:      "Number of connected notification stream subscribers",
		},
	)
)
