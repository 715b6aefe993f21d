package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics интерфейс для метрик платежей и выдачи подписок
type PaymentMetrics interface {
	IncPreCheckoutAccepted()
	IncPreCheckoutRejected(reason string)
	IncGrant(currency string)
	ObservePaymentAmount(amount float64, currency string)
}

type paymentMetrics struct {
	preCheckouts   *prometheus.CounterVec
	grants         *prometheus.CounterVec
	paymentsAmount *prometheus.HistogramVec
}

// NewPaymentMetrics создает новые метрики платежей
func NewPaymentMetrics(registry *prometheus.Registry) PaymentMetrics {
	preCheckouts := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "precheckout_answers_total",
			Help: "The total number of pre-checkout answers by result",
		},
		[]string{"result", "reason"},
	)

	grants := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_grants_total",
			Help: "The total number of granted subscription extensions",
		},
		[]string{"currency"},
	)

	paymentsAmount := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payments_amount",
			Help:    "Confirmed payment amounts distribution",
			Buckets: prometheus.ExponentialBuckets(1, 5, 6), // 1, 5, 25, 125, 625, 3125
		},
		[]string{"currency"},
	)

	return &paymentMetrics{
		preCheckouts:   preCheckouts,
		grants:         grants,
		paymentsAmount: paymentsAmount,
	}
}

// IncPreCheckoutAccepted увеличивает счетчик одобренных pre-checkout запросов
func (m *paymentMetrics) IncPreCheckoutAccepted() {
	m.preCheckouts.WithLabelValues("accepted", "").Inc()
}

// IncPreCheckoutRejected увеличивает счетчик отклоненных pre-checkout запросов
func (m *paymentMetrics) IncPreCheckoutRejected(reason string) {
	m.preCheckouts.WithLabelValues("rejected", reason).Inc()
}

// IncGrant увеличивает счетчик выданных продлений подписки
func (m *paymentMetrics) IncGrant(currency string) {
	m.grants.WithLabelValues(currency).Inc()
}

// ObservePaymentAmount записывает сумму подтвержденного платежа
func (m *paymentMetrics) ObservePaymentAmount(amount float64, currency string) {
	m.paymentsAmount.WithLabelValues(currency).Observe(amount)
}
