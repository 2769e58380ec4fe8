// Package otel binds goAccess console metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per console counter
// and an Int64ObservableGauge per guard-latency bucket. One callback reads
// [goAccess.Console.MetricsSnapshot] on each collection cycle.
//
// Callers own the MeterProvider and supply the Meter.
package otel
