package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPRequests: количество HTTP-запросов к API.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "triage_http_requests_total",
	Help: "Total HTTP requests handled by triage-api",
}, []string{"method", "route", "status"})

// HTTPDuration: время обработки HTTP-запросов.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "triage_http_request_duration_seconds",
	Help:    "HTTP request latency",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// JobsProcessed: завершённые задания по статусу.
var JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "triage_jobs_total",
	Help: "Triage jobs processed by status",
}, []string{"status"})

// JobsEnqueued: созданные задания по источнику.
var JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "triage_jobs_enqueued_total",
	Help: "Triage jobs created by source",
}, []string{"source"})

// LLMRequests: запросы к chat-completion API.
var LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "triage_llm_requests_total",
	Help: "Chat completion requests by provider and outcome",
}, []string{"provider", "outcome"})

// LLMDuration: время запроса к chat-completion API.
var LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "triage_llm_request_duration_seconds",
	Help:    "Chat completion latency",
	Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
}, []string{"provider"})

// LabelsApplied: метки, применённые к issues.
var LabelsApplied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "triage_labels_applied_total",
	Help: "Labels attached to issues",
})

// LabelFailures: метки, которые не удалось получить или создать.
var LabelFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "triage_label_failures_total",
	Help: "Labels skipped because they could not be fetched or created",
})
