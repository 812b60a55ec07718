package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for storefront commerce state.
type BusinessMetrics struct {
	// Cart
	CartItemsAdded *prometheus.CounterVec
	CartUpdated    *prometheus.CounterVec
	CartCleared    prometheus.Counter
	CartHydrated   *prometheus.CounterVec
	CartPersistErr prometheus.Counter
	CartValue      prometheus.Histogram

	// Discount codes
	DiscountValidations *prometheus.CounterVec
	DiscountRemoved     prometheus.Counter

	// Favorites
	FavoritesChanged *prometheus.CounterVec
	FavoritesSynced  *prometheus.CounterVec

	// Checkout funnel
	CheckoutStep   *prometheus.CounterVec
	OrdersCreated  *prometheus.CounterVec
	OrdersFailed   *prometheus.CounterVec
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram

	// Sessions
	SessionsActive  prometheus.Gauge
	SessionsEvicted prometheus.Counter

	// Remote API performance
	RemoteAPILatency *prometheus.HistogramVec
	RemoteAPIErrors  *prometheus.CounterVec
}

// NewBusinessMetrics creates all business metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "esans"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"quality"},
		),
		CartUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updated_total",
				Help:      "Total cart line updates and removals",
			},
			[]string{"action"}, // action: update, remove
		),
		CartCleared: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total cart clears (explicit or after an order)",
			},
		),
		CartHydrated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_hydrated_total",
				Help:      "Total cart loads from durable storage",
			},
			[]string{"result"}, // result: restored, empty, malformed, error
		),
		CartPersistErr: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_persist_errors_total",
				Help:      "Total failed cart writes to durable storage",
			},
		),
		CartValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value_try",
				Help:      "Cart total distribution in lira at checkout",
				Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
			},
		),

		// =======================================================================
		// Discount codes
		// =======================================================================
		DiscountValidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "discount_validations_total",
				Help:      "Total discount code validation attempts",
			},
			[]string{"result"}, // result: applied, rejected, busy
		),
		DiscountRemoved: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "discount_removed_total",
				Help:      "Total explicit discount removals",
			},
		),

		// =======================================================================
		// Favorites
		// =======================================================================
		FavoritesChanged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "favorites_changed_total",
				Help:      "Total favorites mutations",
			},
			[]string{"action", "result"}, // action: add, remove, toggle
		),
		FavoritesSynced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "favorites_synced_total",
				Help:      "Total favorites fetches after sign-in",
			},
			[]string{"result"},
		),

		// =======================================================================
		// Checkout funnel
		// =======================================================================
		CheckoutStep: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_step_total",
				Help:      "Total completions of each checkout step",
			},
			[]string{"step"}, // step: shipping, payment
		),
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
			[]string{"payment_method"},
		),
		OrdersFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_failed_total",
				Help:      "Total rejected order submissions",
			},
			[]string{"code"},
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_try",
				Help:      "Order total distribution in lira",
				Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
			},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of items per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),

		// =======================================================================
		// Sessions
		// =======================================================================
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_active",
				Help:      "Number of in-memory session bundles",
			},
		),
		SessionsEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_evicted_total",
				Help:      "Total idle session bundles evicted",
			},
		),

		// =======================================================================
		// Remote API performance
		// =======================================================================
		RemoteAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "remote_api_duration_seconds",
				Help:      "Store API call duration (helps differentiate app slowness from API issues)",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		RemoteAPIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "remote_api_errors_total",
				Help:      "Total failed store API calls",
			},
			[]string{"operation", "code"},
		),
	}

	return m
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, nil)
	return Business
}
