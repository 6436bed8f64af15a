package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatched = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "postdeck_outbox_dispatched_total",
			Help: "Number of outbox publish attempts, differentiated by result.",
		},
		[]string{"result"},
	)

	backlog = promauto.NewGauge( //nolint:gochecknoglobals
		prometheus.GaugeOpts{
			Name: "postdeck_outbox_backlog",
			Help: "Number of undelivered outbox messages still eligible for dispatch.",
		},
	)
)
