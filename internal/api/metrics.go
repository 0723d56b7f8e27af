package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leadsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadrouter_leads_created_total",
		Help: "Leads accepted by intake.",
	})

	duplicatesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadrouter_duplicates_suppressed_total",
		Help: "Submissions answered with an existing lead inside the duplicate window.",
	})

	routingDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrouter_routing_decisions_total",
		Help: "Auto-assignment decisions by outcome.",
	}, []string{"outcome"})

	rankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leadrouter_ranking_duration_seconds",
		Help:    "Time spent ranking candidates for a vehicle.",
		Buckets: prometheus.DefBuckets,
	})
)
