// Package otel provides OpenTelemetry metric bindings for the identity
// engine's counters and histograms.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads
// [identity.Engine.MetricsSnapshot] on each collection cycle.
//
// The caller supplies the Meter and owns the MeterProvider; this package
// never mutates engine state.
package otel
