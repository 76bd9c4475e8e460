// Package otel publishes socialauth engine metrics through an OpenTelemetry
// meter using observable instruments, pulled from a snapshot at collection
// time.
//
// # What this package must NOT do
//
//   - Own a MeterProvider; callers supply the meter.
//   - Mutate engine state.
package otel
