package metrics

import "github.com/prometheus/client_golang/prometheus"

// FlowMetrics exposes counters for the booking and payment flows.
type FlowMetrics struct {
	transitionsTotal        *prometheus.CounterVec
	checkoutSessionsTotal   *prometheus.CounterVec
	sessionInvalidatedTotal prometheus.Counter
	paymentReturnsTotal     *prometheus.CounterVec
	bookingCreatesTotal     *prometheus.CounterVec
	batchDeletesTotal       *prometheus.CounterVec
}

func NewFlowMetrics(reg prometheus.Registerer) *FlowMetrics {
	m := &FlowMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingflow",
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Total wizard state transitions",
		}, []string{"from", "to"}),
		checkoutSessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingflow",
			Subsystem: "payments",
			Name:      "checkout_sessions_total",
			Help:      "Total checkout session creation attempts",
		}, []string{"outcome", "admin_initiated"}),
		sessionInvalidatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookingflow",
			Subsystem: "payments",
			Name:      "sessions_invalidated_total",
			Help:      "Prior checkout sessions invalidated by a newer one",
		}),
		paymentReturnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingflow",
			Subsystem: "payments",
			Name:      "returns_total",
			Help:      "Total checkout return callbacks by outcome",
		}, []string{"outcome"}),
		bookingCreatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingflow",
			Subsystem: "bookings",
			Name:      "creates_total",
			Help:      "Total booking create calls",
		}, []string{"audience", "status"}),
		batchDeletesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingflow",
			Subsystem: "bookings",
			Name:      "batch_deletes_total",
			Help:      "Per-item outcomes of batch booking deletions",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.transitionsTotal,
		m.checkoutSessionsTotal,
		m.sessionInvalidatedTotal,
		m.paymentReturnsTotal,
		m.bookingCreatesTotal,
		m.batchDeletesTotal,
	)
	return m
}

func (m *FlowMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *FlowMetrics) ObserveCheckoutSession(outcome string, adminInitiated bool) {
	if m == nil {
		return
	}
	label := "false"
	if adminInitiated {
		label = "true"
	}
	m.checkoutSessionsTotal.WithLabelValues(outcome, label).Inc()
}

func (m *FlowMetrics) ObserveSessionInvalidated() {
	if m == nil {
		return
	}
	m.sessionInvalidatedTotal.Inc()
}

func (m *FlowMetrics) ObservePaymentReturn(outcome string) {
	if m == nil {
		return
	}
	m.paymentReturnsTotal.WithLabelValues(outcome).Inc()
}

func (m *FlowMetrics) ObserveBookingCreate(audience, status string) {
	if m == nil {
		return
	}
	m.bookingCreatesTotal.WithLabelValues(audience, status).Inc()
}

func (m *FlowMetrics) ObserveBatchDelete(result string) {
	if m == nil {
		return
	}
	m.batchDeletesTotal.WithLabelValues(result).Inc()
}
