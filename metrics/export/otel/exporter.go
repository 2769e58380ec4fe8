package otel

import (
	"context"
	"errors"
	"fmt"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

// Constructor errors.
var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goAccess.MetricsSnapshot
	AuditDropped() uint64
}

type inventorySource interface {
	Inventory() goAccess.Inventory
}

type inventoryGauges struct {
	source        inventorySource
	permissions   metric.Int64ObservableGauge
	roles         metric.Int64ObservableGauge
	authenticated metric.Int64ObservableGauge
}

type observedCounter struct {
	id         goAccess.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goAccess.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes console metrics through observable OTel instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
	inventory    *inventoryGauges
}

// NewOTelExporter registers instruments on meter that read from console on
// every collection.
func NewOTelExporter(meter metric.Meter, console *goAccess.Console) (*OTelExporter, error) {
	if console == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, console)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	if inv, ok := source.(inventorySource); ok {
		g, err := newInventoryGauges(meter, inv)
		if err != nil {
			return nil, err
		}
		exporter.inventory = g
		observables = append(observables, g.permissions, g.roles, g.authenticated)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		for _, h := range exporter.histograms {
			nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[h.id])
			cumulative := internaldefs.CumulativeBuckets(nonCumulative)
			for i := 0; i < len(cumulative); i++ {
				observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		if g := exporter.inventory; g != nil {
			inv := g.source.Inventory()
			observer.ObserveInt64(g.permissions, int64(inv.Permissions))
			observer.ObserveInt64(g.roles, int64(inv.Roles))
			var authenticated int64
			if inv.Authenticated {
				authenticated = 1
			}
			observer.ObserveInt64(g.authenticated, authenticated)
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

func newInventoryGauges(meter metric.Meter, source inventorySource) (*inventoryGauges, error) {
	g := &inventoryGauges{source: source}
	var err error
	if g.permissions, err = meter.Int64ObservableGauge(internaldefs.PermissionsGaugeName, metric.WithDescription("Permissions in the catalog.")); err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", internaldefs.PermissionsGaugeName, err)
	}
	if g.roles, err = meter.Int64ObservableGauge(internaldefs.RolesGaugeName, metric.WithDescription("Roles in the registry.")); err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", internaldefs.RolesGaugeName, err)
	}
	if g.authenticated, err = meter.Int64ObservableGauge(internaldefs.AuthenticatedGaugeName, metric.WithDescription("Whether a session is active.")); err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", internaldefs.AuthenticatedGaugeName, err)
	}
	return g, nil
}
