// Package metrics provides observability hooks for the build pipeline.
//
// The package follows the Null Object pattern so components never nil-check
// their recorder:
//
//  1. Recorder interface - defines all metrics operations
//  2. NoopRecorder - default implementation that does nothing
//  3. PrometheusRecorder - the real implementation, registered on a
//     prometheus.Registry and exposed at GET /metrics
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder:
//
//	service := build.NewService(ws, fetcher, builder).
//		WithRecorder(metrics.NewPrometheusRecorder(registry))
//
// Tests inject a recording fake to verify instrumentation without scraping.
package metrics
