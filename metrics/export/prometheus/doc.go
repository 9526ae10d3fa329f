// Package prometheus renders identity engine metrics in Prometheus text
// exposition format.
//
// [NewExporter] accepts an [identity.Engine] and exposes an [http.Handler]
// that renders all engine counters and histograms. Counter names are
// prefixed identity_*_total; the single histogram is
// identity_validate_latency_seconds.
//
// The exporter never registers in a global Prometheus registry; callers
// mount the Handler where they want it.
package prometheus
