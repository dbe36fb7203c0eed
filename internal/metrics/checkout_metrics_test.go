package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewCheckoutMetrics(t *testing.T) {
	metrics := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newCheckoutMetricsWithRegisterer should not return nil")
	}

	if metrics.checkoutStarted == nil {
		t.Error("checkoutStarted counter should not be nil")
	}

	if metrics.checkoutSucceeded == nil {
		t.Error("checkoutSucceeded counter should not be nil")
	}

	if metrics.checkoutFailed == nil {
		t.Error("checkoutFailed counter should not be nil")
	}

	if metrics.checkoutUnauthenticated == nil {
		t.Error("checkoutUnauthenticated counter should not be nil")
	}

	if metrics.checkoutRejectedBusy == nil {
		t.Error("checkoutRejectedBusy counter should not be nil")
	}

	if metrics.checkoutDuration == nil {
		t.Error("checkoutDuration histogram should not be nil")
	}

	if metrics.cartOperations == nil {
		t.Error("cartOperations counter vec should not be nil")
	}

	if metrics.activeCheckouts == nil {
		t.Error("activeCheckouts gauge should not be nil")
	}
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newCheckoutMetricsWithRegisterer(reg)
	second := newCheckoutMetricsWithRegisterer(reg)

	first.RecordCheckoutStarted()
	second.RecordCheckoutStarted()

	metric := &dto.Metric{}
	if err := first.checkoutStarted.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordCheckoutStarted(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newCheckoutMetricsWithRegisterer(reg)

	metrics.RecordCheckoutStarted()

	metric := &dto.Metric{}
	if err := metrics.checkoutStarted.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}

	gauge := &dto.Metric{}
	if err := metrics.activeCheckouts.Write(gauge); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gauge.Gauge.GetValue() != 1.0 {
		t.Errorf("expected gauge value 1.0, got %f", gauge.Gauge.GetValue())
	}

	metrics.RecordCheckoutFinished()
	gauge.Reset()
	if err := metrics.activeCheckouts.Write(gauge); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gauge.Gauge.GetValue() != 0.0 {
		t.Errorf("expected gauge value 0.0, got %f", gauge.Gauge.GetValue())
	}
}

func TestRecordCheckoutDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newCheckoutMetricsWithRegisterer(reg)

	metrics.RecordCheckoutDuration(250 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	var found bool
	for _, family := range families {
		if family.GetName() != "gramseva_checkout_duration_seconds" {
			continue
		}
		found = true
		hist := family.GetMetric()[0].GetHistogram()
		if hist.GetSampleCount() != 1 {
			t.Errorf("expected 1 observation, got %d", hist.GetSampleCount())
		}
	}
	if !found {
		t.Fatal("checkout duration histogram not gathered")
	}
}

func TestRecordCartOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newCheckoutMetricsWithRegisterer(reg)

	metrics.RecordCartOperation("add")
	metrics.RecordCartOperation("add")
	metrics.RecordCartOperation("remove")

	metric := &dto.Metric{}
	if err := metrics.cartOperations.WithLabelValues("add").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected add counter 2.0, got %f", metric.Counter.GetValue())
	}
}
