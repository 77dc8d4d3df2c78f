package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for cart_operations_total.
const (
	outcomeSuccess    = "success"
	outcomeNoop       = "noop"
	outcomeOutOfStock = "out_of_stock"
	outcomeFailed     = "failed"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	cartEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_entries",
			Help: "Distinct products currently in the cart",
		},
	)
)
