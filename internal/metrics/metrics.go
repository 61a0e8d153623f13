// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package metrics provides Prometheus instrumentation for:
//   - Quota evaluation outcomes and fail-open events
//   - Event log append failures
//   - AI generation latency and circuit breaker state
//   - API endpoint latency and throughput
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quota Metrics
	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_decisions_total",
			Help: "Total quota evaluations by action type and outcome",
		},
		[]string{"action_type", "allowed"},
	)

	QuotaFailOpen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_fail_open_total",
			Help: "Quota evaluations granted because the event log was unavailable",
		},
		[]string{"reason"}, // "index_missing", "store_error"
	)

	EventAppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlog_append_errors_total",
			Help: "Generation events that could not be recorded",
		},
	)

	// Generation Metrics
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "AI generation call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"action_type", "outcome"},
	)

	GenerationBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "generation_breaker_open",
			Help: "1 when the generation circuit breaker is open, 0 otherwise",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordQuotaDecision records the outcome of one quota evaluation.
func RecordQuotaDecision(actionType string, allowed bool) {
	QuotaDecisions.WithLabelValues(actionType, strconv.FormatBool(allowed)).Inc()
}

// RecordFailOpen records a fail-open grant. reason is "index_missing" or
// "store_error".
func RecordFailOpen(reason string) {
	QuotaFailOpen.WithLabelValues(reason).Inc()
}

// RecordGeneration records one AI generation attempt.
func RecordGeneration(actionType string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	GenerationDuration.WithLabelValues(actionType, outcome).Observe(duration.Seconds())
}

// RecordAPIRequest records one handled HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetBreakerOpen updates the generation breaker gauge.
func SetBreakerOpen(open bool) {
	if open {
		GenerationBreakerState.Set(1)
		return
	}
	GenerationBreakerState.Set(0)
}
