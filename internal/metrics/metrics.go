package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Recipes
	RecipesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_created_total",
			Help: "Total recipes created",
		},
	)
	RelationChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_relation_changes_total",
			Help: "Favorite and shopping cart changes",
		},
		[]string{"relation", "action"}, // favorite|shopping_cart, add|remove
	)
	ShoppingListExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopping_list_exports_total",
			Help: "Shopping list downloads",
		},
		[]string{"format"}, // txt|xlsx
	)

	registerOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry; safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDuration,
			RecipesCreated,
			RelationChanges,
			ShoppingListExports,
		)
	})
}
