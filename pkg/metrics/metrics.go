// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Retrieval job outcomes per jurisdiction
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arvault_retrieval_jobs_total",
		Help: "Total retrieval jobs by jurisdiction and outcome",
	}, []string{"jurisdiction", "outcome"})

	// Per-candidate pipeline outcomes
	DocumentsDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arvault_documents_downloaded_total",
		Help: "Documents fetched and uploaded to the store",
	}, []string{"jurisdiction"})

	DocumentsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arvault_documents_failed_total",
		Help: "Candidates that failed to fetch or upload",
	}, []string{"jurisdiction"})

	// Template seeding outcomes (skipped = expected condition such as an
	// already-existing destination; failed = anything else)
	TemplateSeeds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arvault_template_seeds_total",
		Help: "Template seed copies by outcome (copied, skipped, failed)",
	}, []string{"outcome"})

	// Restriction removal outcomes
	UnlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arvault_unlock_total",
		Help: "Restriction removal attempts by outcome (unlocked, passthrough)",
	}, []string{"outcome"})
)
