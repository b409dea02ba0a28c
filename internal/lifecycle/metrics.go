package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "carpool_lifecycle_transitions_total",
		Help: "Lifecycle operations by outcome",
	},
	[]string{"operation", "result"},
)
