// Package prometheus bridges socialauth engine metrics into a
// prometheus/client_golang collector.
//
// [NewCollector] wraps an engine as a [prometheus.Collector]; [Handler]
// serves it from a private registry so nothing leaks into the global one.
//
// # What this package must NOT do
//
//   - Register metrics in the default Prometheus registry.
//   - Mutate engine state.
package prometheus
