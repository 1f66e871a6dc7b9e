// Package daemon keeps a generated site fresh: it serves the output
// directory, rebuilds on a schedule or when local content changes, and
// exposes build status and Prometheus metrics over HTTP.
package daemon
