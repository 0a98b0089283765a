package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensor_readings_processed_total",
		Help: "Total number of sensor batches processed successfully",
	})

	ReadingsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_readings_rejected_total",
		Help: "Total number of sensor batches rejected",
	}, []string{"reason"})

	CompartmentsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compartments_updated_total",
		Help: "Total number of compartment inventory updates applied",
	})

	CompartmentErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compartment_errors_total",
		Help: "Total number of per-compartment errors inside accepted batches",
	}, []string{"reason"})

	ItemsCreatedFromSensorTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_created_from_sensor_total",
		Help: "Total number of placeholder items created from unseen compartments",
	})

	AlertsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_raised_total",
		Help: "Total number of inventory alerts raised",
	}, []string{"severity"})

	CabinetsRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cabinets_registered_total",
		Help: "Total number of cabinets registered by hardware",
	})

	IngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensor_ingest_latency_seconds",
		Help:    "Latency of sensor batch ingestion",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
