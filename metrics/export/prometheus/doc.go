// Package prometheus renders goAccess console metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [goAccess.Console] and exposes an
// [http.Handler]. Counter names are prefixed goaccess_*_total and the single
// histogram is goaccess_guard_check_latency_seconds. Sources that report an
// inventory also get catalog, role and session gauges.
//
// The exporter never registers with a global registry and never mutates
// console state; callers mount the Handler.
package prometheus
