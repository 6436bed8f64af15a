package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var overrideChanges = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "postdeck_permission_overrides_total",
		Help: "Number of per-member permission override changes, differentiated by kind.",
	},
	[]string{"kind"},
)
