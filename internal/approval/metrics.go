package approval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissions = promauto.NewCounter( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "postdeck_approval_submissions_total",
			Help: "Number of posts submitted for approval.",
		},
	)

	reviews = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "postdeck_approval_reviews_total",
			Help: "Number of recorded reviews, differentiated by result.",
		},
		[]string{"result"},
	)

	staleAssignments = promauto.NewGauge( //nolint:gochecknoglobals
		prometheus.GaugeOpts{
			Name: "postdeck_approval_stale_assignments",
			Help: "Number of pending assignments older than the configured threshold at the last check.",
		},
	)
)
