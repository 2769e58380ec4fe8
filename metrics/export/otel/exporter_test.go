package otel

import (
	"context"
	"sync"
	"testing"

	goAccess "github.com/MrEthical07/goAccess"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goAccess.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goAccess.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goAccess.MetricsSnapshot{
		Counters:   make(map[goAccess.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goAccess.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goaccess-test")

	src := &fakeSource{
		snapshot: goAccess.MetricsSnapshot{
			Counters: map[goAccess.MetricID]uint64{
				goAccess.MetricLogin: 3,
			},
			Histograms: map[goAccess.MetricID][]uint64{
				goAccess.MetricGuardCheckLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					got[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					got[m.Name] = dp.Value
				}
			}
		}
	}
	if got["goaccess_login_total"] != 3 {
		t.Fatalf("goaccess_login_total = %d, want 3", got["goaccess_login_total"])
	}
	if got["goaccess_audit_dropped_total"] != 1 {
		t.Fatalf("goaccess_audit_dropped_total = %d, want 1", got["goaccess_audit_dropped_total"])
	}
	if got["goaccess_guard_check_latency_seconds_bucket_le_inf"] != 8 {
		t.Fatalf("+Inf bucket = %d, want 8", got["goaccess_guard_check_latency_seconds_bucket_le_inf"])
	}
	if got["goaccess_guard_check_latency_seconds_count"] != 8 {
		t.Fatalf("count = %d, want 8", got["goaccess_guard_check_latency_seconds_count"])
	}
}

func TestNewOTelExporterRejectsNilConsole(t *testing.T) {
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	if _, err := NewOTelExporter(provider.Meter("goaccess-test"), nil); err != ErrNilSource {
		t.Fatalf("err = %v, want ErrNilSource", err)
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goaccess-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goaccess-test")

	src := &fakeSource{
		snapshot: goAccess.MetricsSnapshot{
			Counters: map[goAccess.MetricID]uint64{
				goAccess.MetricLogin: 1,
			},
			Histograms: map[goAccess.MetricID][]uint64{
				goAccess.MetricGuardCheckLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goAccess.MetricLogin] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

type inventoryFake struct {
	*fakeSource
	inv goAccess.Inventory
}

func (f inventoryFake) Inventory() goAccess.Inventory { return f.inv }

func TestExporterObservesInventory(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	src := inventoryFake{
		fakeSource: &fakeSource{snapshot: goAccess.MetricsSnapshot{Counters: map[goAccess.MetricID]uint64{}}},
		inv:        goAccess.Inventory{Permissions: 16, Roles: 4, Authenticated: true},
	}
	exp, err := NewOTelExporterFromSource(provider.Meter("goaccess-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
				got[m.Name] = g.DataPoints[0].Value
			}
		}
	}
	if got["goaccess_catalog_permissions"] != 16 || got["goaccess_roles"] != 4 || got["goaccess_session_authenticated"] != 1 {
		t.Fatalf("unexpected inventory gauges: %v", got)
	}
}
