// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides Prometheus metrics for CourseCraft.
//
// Metrics are registered on a caller-supplied registry so that tests and
// multiple engines in one process do not collide on the default registry.
// The stub advisor service exposes the registry at /metrics.
//
// # Key Types
//
//   - Metrics: counters and histograms for queries, terminations and uploads
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(reg)
//	eng := engine.New(engine.Options{Recorder: m, ...})
//
// # Privacy
//
// Only outcomes, counts and durations are recorded. Message text and
// recommendation content never reach a metric label.
package telemetry
