package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "storefront"

// Cart operation results.
const (
	ResultOK           = "ok"
	ResultOutOfStock   = "out_of_stock"
	ResultInsufficient = "insufficient_stock"
	ResultNotFound     = "not_found"
	ResultBusy         = "busy"
	ResultInvalid      = "invalid"
	ResultError        = "error"
)

// CartMetrics counts cart mutations and checkouts by outcome.
type CartMetrics struct {
	operations *prometheus.CounterVec
	checkouts  *prometheus.CounterVec
	warnings   *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_reconcile_warnings_total",
		Help:      "Stock warnings raised while reconciling carts against the catalog.",
	}, []string{"kind"})
	reg.MustRegister(operations, checkouts, warnings)
	return &CartMetrics{
		operations: operations,
		checkouts:  checkouts,
		warnings:   warnings,
	}
}

// IncOperation counts one cart mutation.
func (m *CartMetrics) IncOperation(op, result string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// IncCheckout counts one checkout attempt.
func (m *CartMetrics) IncCheckout(result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

// AddWarnings counts reconcile warnings of one kind.
func (m *CartMetrics) AddWarnings(kind string, n int) {
	if m == nil || m.warnings == nil || n <= 0 {
		return
	}
	m.warnings.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}
