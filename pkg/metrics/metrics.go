// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContactsCreatedTotal tracks contacts created by source system
	ContactsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "contacts_created_total",
			Help:      "Total number of contacts created by source system",
		},
		[]string{"source_system"},
	)

	// DuplicatesRejectedTotal tracks identity key collisions by operation
	DuplicatesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "duplicates_rejected_total",
			Help:      "Total number of writes rejected because the (name, mobile) pair was taken",
		},
		[]string{"operation"},
	)

	// BulkItemsTotal tracks bulk association outcomes per item
	BulkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "relationships",
			Name:      "bulk_items_total",
			Help:      "Total number of items processed by bulk association operations",
		},
		[]string{"operation", "outcome"},
	)

	// LedgerRecordsTotal tracks merge history rows written by merge type
	LedgerRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ledger",
			Name:      "records_total",
			Help:      "Total number of merge history records written",
		},
		[]string{"merge_type"},
	)

	// LedgerWriteFailuresTotal tracks merge history writes that were dropped
	LedgerWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ledger",
			Name:      "write_failures_total",
			Help:      "Total number of merge history writes that failed and were dropped",
		},
	)

	// EventsPublishedTotal tracks contact events sent to Kafka
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of contact events published by type and status",
		},
		[]string{"event_type", "status"},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http_server",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "http_server",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)
