// Package metrics exposes Prometheus collectors for HTTP traffic, query
// outcomes and the served dataset, registered on a package Registry and
// served by Handler at /metrics.
package metrics
