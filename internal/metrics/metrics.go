// Package metrics declares the Prometheus collectors of the storefront.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOps counts state container mutations by store and operation.
	StoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophshop",
		Name:      "store_operations_total",
		Help:      "State container mutations by store and operation.",
	}, []string{"store", "op"})

	// PersistFailures counts writes the persistence adapter rejected.
	PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophshop",
		Name:      "persist_failures_total",
		Help:      "Failed writes to local storage by key.",
	}, []string{"key"})

	// CatalogRequests counts catalog lookups by endpoint and outcome
	// (hit, ok, error).
	CatalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophshop",
		Name:      "catalog_requests_total",
		Help:      "Catalog lookups by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// HTTPRequests counts API requests by method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophshop",
		Name:      "http_requests_total",
		Help:      "API requests by method and status.",
	}, []string{"method", "status"})
)
