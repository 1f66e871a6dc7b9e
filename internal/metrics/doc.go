// Package metrics provides the observability hooks used by the generator.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	gen := generator.New(collaborators).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The serve command registers a PrometheusRecorder and exposes it through
// HTTPHandler on /metrics.
package metrics
