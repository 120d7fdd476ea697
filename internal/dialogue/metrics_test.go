package dialogue

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/greeni/internal/observe"
)

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs map[string]string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is not an int64 sum", name)
			}
		points:
			for _, dp := range sum.DataPoints {
				for k, want := range attrs {
					if v, ok := dp.Attributes.Value(attribute.Key(k)); !ok || v.AsString() != want {
						continue points
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_TurnsAndSessions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	store := NewStore(FeatureRoleplay, WithStoreMetrics(m))
	o, err := NewOrchestrator(store, echoLLM(), WithMetrics(m), WithTurnCeiling(2), WithPurgeAtCeiling(true))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := o.Turn(ctx, TurnRequest{SessionID: "r", Role: RoleShop, Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	if got := sumOf(t, reader, "greeni.dialogue.turns", map[string]string{"feature": "roleplay", "status": "active"}); got != 1 {
		t.Errorf("active turns = %d, want 1", got)
	}
	if got := sumOf(t, reader, "greeni.dialogue.turns", map[string]string{"feature": "roleplay", "status": "completed"}); got != 1 {
		t.Errorf("completed turns = %d, want 1", got)
	}
	if got := sumOf(t, reader, "greeni.session.purges", map[string]string{"reason": "ceiling"}); got != 1 {
		t.Errorf("ceiling purges = %d, want 1", got)
	}
	if got := sumOf(t, reader, "greeni.active_sessions", map[string]string{"feature": "roleplay"}); got != 0 {
		t.Errorf("active sessions = %d, want 0 after purge", got)
	}
}
