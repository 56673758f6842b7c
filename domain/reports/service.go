package reports

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/internal/fetch"
	"github.com/borealgeo/arvault/pkg/apperror"
	"github.com/borealgeo/arvault/pkg/logger"
	"github.com/borealgeo/arvault/pkg/metrics"
	"github.com/borealgeo/arvault/pkg/tracing"
)

// Store is the slice of the object store the retrieval flow needs. All three
// operations are idempotent from this package's point of view.
type Store interface {
	EnsureFolder(ctx context.Context, path string) error
	Copy(ctx context.Context, fromPath, toPath string) error
	Upload(ctx context.Context, path string, data []byte) error
}

// Getter fetches a document address with the service's retry policy.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Result, error)
}

// Service runs retrieval jobs: strategy resolution, destination provisioning,
// link discovery and the download-then-upload pipeline.
type Service struct {
	strategies *Table
	store      Store
	fetcher    Getter
	cfg        *config.Config
	log        *slog.Logger
}

// NewService creates the reports service.
func NewService(strategies *Table, store Store, fetcher Getter, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		strategies: strategies,
		store:      store,
		fetcher:    fetcher,
		cfg:        cfg,
		log:        log.With(logger.Scope("reports")),
	}
}

// RetrieveResult is the caller-visible outcome of a job: a count, nothing
// per-document. Individual candidate failures live in the logs only.
type RetrieveResult struct {
	Downloaded int
}

// Retrieve executes one retrieval job to completion.
func (s *Service) Retrieve(ctx context.Context, job RetrievalJob) (*RetrieveResult, error) {
	if err := job.Validate(); err != nil {
		return nil, apperror.NewBadRequest(err.Error())
	}

	strat, err := s.strategies.Resolve(job.Jurisdiction, job.ReportID)
	if err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	ctx, span := tracing.Start(ctx, "reports.retrieve",
		attribute.String("arvault.job.id", jobID),
		attribute.String("arvault.report.id", job.ReportID),
		attribute.String("arvault.jurisdiction", string(job.Jurisdiction)),
	)
	defer span.End()

	log := s.log.With(
		slog.String("job_id", jobID),
		slog.String("report_id", job.ReportID),
		slog.String("jurisdiction", string(job.Jurisdiction)),
		slog.String("project", job.Project),
	)
	log.Info("retrieval job started")

	layout, err := s.provision(ctx, job)
	if err != nil {
		metrics.JobsTotal.WithLabelValues(string(job.Jurisdiction), "error").Inc()
		return nil, err
	}

	candidates, err := s.discoverCandidates(ctx, job, strat)
	if err != nil {
		metrics.JobsTotal.WithLabelValues(string(job.Jurisdiction), "error").Inc()
		return nil, err
	}

	count := s.runPipeline(ctx, job.Jurisdiction, candidates, layout)

	outcome := "downloaded"
	if count == 0 {
		outcome = "empty"
	}
	metrics.JobsTotal.WithLabelValues(string(job.Jurisdiction), outcome).Inc()

	log.Info("retrieval job finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("downloaded", count),
	)

	return &RetrieveResult{Downloaded: count}, nil
}

// discoverCandidates produces the candidate set for a job. Direct-single-file
// jurisdictions bypass discovery entirely; jurisdictions without a listing
// page yield no candidates at all.
func (s *Service) discoverCandidates(ctx context.Context, job RetrievalJob, strat Strategy) ([]Candidate, error) {
	if direct := strat.DirectFileURLFor(job.ReportID); direct != "" {
		return []Candidate{{Address: direct, Origin: OriginExplicit}}, nil
	}

	listing := strat.ListingURLFor(job.ReportID)
	if listing == "" {
		return nil, nil
	}

	res, err := s.fetcher.Get(ctx, listing)
	if err != nil {
		return nil, apperror.ErrUpstream.
			WithMessage("listing page fetch failed").
			WithInternal(err)
	}

	return Discover(res.Body, res.FinalURL, strat, job.ReportID), nil
}
