package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики корзины и оформления заказа.
type CheckoutMetrics struct {
	// Счётчики попыток оформления
	checkoutStarted         prometheus.Counter
	checkoutSucceeded       prometheus.Counter
	checkoutFailed          prometheus.Counter
	checkoutUnauthenticated prometheus.Counter
	checkoutRejectedBusy    prometheus.Counter

	// Гистограмма времени оформления
	checkoutDuration prometheus.Histogram

	// Счётчик операций корзины по типу
	cartOperations *prometheus.CounterVec

	// Gauge для активных оформлений
	activeCheckouts prometheus.Gauge
}

// NewCheckoutMetrics создаёт новый экземпляр метрик чекаута.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		checkoutStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "gramseva_checkout_started_total",
			Help: "Total number of checkout attempts started",
		}),
		checkoutSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "gramseva_checkout_succeeded_total",
			Help: "Total number of checkout attempts that produced a booking",
		}),
		checkoutFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "gramseva_checkout_failed_total",
			Help: "Total number of checkout attempts that failed at submission",
		}),
		checkoutUnauthenticated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "gramseva_checkout_unauthenticated_total",
			Help: "Total number of checkout attempts aborted for missing credentials",
		}),
		checkoutRejectedBusy: registerCounter(registerer, prometheus.CounterOpts{
			Name: "gramseva_checkout_rejected_busy_total",
			Help: "Total number of checkout attempts rejected by the single-flight guard",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "gramseva_checkout_duration_seconds",
			Help:    "Duration of checkout attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cartOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "gramseva_cart_operations_total",
			Help: "Total number of cart store operations grouped by type",
		}, []string{"op"}),
		activeCheckouts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "gramseva_active_checkouts",
			Help: "Number of currently in-flight checkout submissions",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckoutStarted увеличивает счётчик начатых оформлений.
func (m *CheckoutMetrics) RecordCheckoutStarted() {
	m.checkoutStarted.Inc()
	m.activeCheckouts.Inc()
}

// RecordCheckoutFinished уменьшает количество активных оформлений.
func (m *CheckoutMetrics) RecordCheckoutFinished() {
	m.activeCheckouts.Dec()
}

// RecordCheckoutSucceeded увеличивает счётчик успешных оформлений.
func (m *CheckoutMetrics) RecordCheckoutSucceeded() {
	m.checkoutSucceeded.Inc()
}

// RecordCheckoutFailed увеличивает счётчик неудачных оформлений.
func (m *CheckoutMetrics) RecordCheckoutFailed() {
	m.checkoutFailed.Inc()
}

// RecordCheckoutUnauthenticated увеличивает счётчик прерванных из-за отсутствия токена.
func (m *CheckoutMetrics) RecordCheckoutUnauthenticated() {
	m.checkoutUnauthenticated.Inc()
}

// RecordCheckoutRejectedBusy увеличивает счётчик отклонённых single-flight guard'ом.
func (m *CheckoutMetrics) RecordCheckoutRejectedBusy() {
	m.checkoutRejectedBusy.Inc()
}

// RecordCheckoutDuration записывает время оформления.
func (m *CheckoutMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordCartOperation увеличивает счётчик операций корзины.
func (m *CheckoutMetrics) RecordCartOperation(op string) {
	m.cartOperations.WithLabelValues(op).Inc()
}
