package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_cycles_total",
		Help: "Number of dispatcher cycles executed",
	})

	TweetsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweets_sent_total",
		Help: "Tweets successfully delivered",
	})

	TweetsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweets_failed_total",
		Help: "Tweets that failed delivery and were marked failed",
	})

	ClaimConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claim_conflicts_total",
		Help: "Due tweets already claimed by a concurrent cycle",
	})

	StaleReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stale_sending_released_total",
		Help: "Tweets stuck in sending that were reset to pending",
	})
)
