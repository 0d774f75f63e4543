package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecorders(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))

	m.ObserveRender(StatusOK, 3*time.Millisecond)
	m.ObserveRender(StatusError, time.Millisecond)
	m.RecordMutation("append_text")
	m.RecordMutation("append_text")
	m.RecordLookupFailure("set_inner_html")
	m.RecordDispatch(StatusPanic)
	m.SetComponents(4)
	m.RecordSwept(2)
	m.RecordSwept(0)

	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues(StatusOK)); got != 1 {
		t.Errorf("renders_total(ok) = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.renderDuration); got != 2 {
		t.Errorf("render_duration_seconds count = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.domMutations.WithLabelValues("append_text")); got != 2 {
		t.Errorf("dom_mutations_total(append_text) = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.lookupFailures.WithLabelValues("set_inner_html")); got != 1 {
		t.Errorf("lookup_failures_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.dispatchTotal.WithLabelValues(StatusPanic)); got != 1 {
		t.Errorf("dispatch_total(panic) = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.registryComponents); got != 4 {
		t.Errorf("registry_components = %v, want 4", got)
	}
	if got := metricCounterValue(t, m.registrySwept); got != 2 {
		t.Errorf("registry_swept_total = %v, want 2", got)
	}
}

func TestNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("demo"))
	m.RecordDispatch(StatusOK)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "demo_dispatch_total" {
			found = true
		}
	}
	if !found {
		t.Error("demo_dispatch_total not registered")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRender(StatusOK, time.Second)
	m.RecordMutation("x")
	m.RecordLookupFailure("x")
	m.RecordDispatch(StatusOK)
	m.SetComponents(1)
	m.RecordSwept(1)
}
