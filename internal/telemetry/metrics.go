// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursecraft"

// Metrics holds every collector CourseCraft records to. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	queries          *prometheus.CounterVec
	queryDuration    prometheus.Histogram
	terminations     *prometheus.CounterVec
	recommendations  prometheus.Histogram
	uploads          *prometheus.CounterVec
	resets           prometheus.Counter
	serviceRequests  *prometheus.CounterVec
	serviceDurations *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. If reg is
// nil a private registry is created.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Chat queries sent to the advisor service, by outcome.",
		}, []string{"outcome"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Round-trip time of advisor queries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminations_total",
			Help:      "Finished conversations, by whether the recommendation payload decoded.",
		}, []string{"result"}),
		recommendations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendations_per_conversation",
			Help:      "Number of courses recommended when a conversation ends.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 12, 20},
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Resume uploads, by outcome.",
		}, []string{"outcome"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Conversation resets requested by the user.",
		}),
		serviceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "requests_total",
			Help:      "Requests handled by the advisor service, by route and status code.",
		}, []string{"route", "code"}),
		serviceDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "request_duration_seconds",
			Help:      "Advisor service handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.queries,
		m.queryDuration,
		m.terminations,
		m.recommendations,
		m.uploads,
		m.resets,
		m.serviceRequests,
		m.serviceDurations,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// CLIENT SIDE
// =============================================================================

// QueryFinished records one query with outcome "resolved", "failed" or
// "discarded".
func (m *Metrics) QueryFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// ConversationTerminated records the end of a conversation.
func (m *Metrics) ConversationTerminated(decoded bool, count int) {
	if m == nil {
		return
	}
	result := "decoded"
	if !decoded {
		result = "decode_failed"
	}
	m.terminations.WithLabelValues(result).Inc()
	m.recommendations.Observe(float64(count))
}

// UploadFinished records a resume upload.
func (m *Metrics) UploadFinished(ok bool) {
	if m == nil {
		return
	}
	outcome := "uploaded"
	if !ok {
		outcome = "failed"
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// ConversationReset records a reset.
func (m *Metrics) ConversationReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

// =============================================================================
// SERVICE SIDE
// =============================================================================

// ServiceRequest records one request handled by the advisor service.
func (m *Metrics) ServiceRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.serviceRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.serviceDurations.WithLabelValues(route).Observe(d.Seconds())
}
