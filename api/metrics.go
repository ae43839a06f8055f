package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_token_refreshes_total",
		Help: "Access token refresh attempts by outcome.",
	},
	[]string{"outcome"},
)
