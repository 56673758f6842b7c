package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/borealgeo/arvault/internal/storage"
	"github.com/borealgeo/arvault/pkg/apperror"
	"github.com/borealgeo/arvault/pkg/logger"
	"github.com/borealgeo/arvault/pkg/metrics"
)

// Layout is the per-job folder structure in the remote store.
type Layout struct {
	Root         string
	Instructions string
	SourceData   string
}

// templateSeed names one template file copied into a fresh report folder.
type templateSeed struct {
	// name identifies the seed in logs
	name string
	// source is relative to the store's template directory
	source string
	// destination, relative to the layout root, rendered with the report id
	destination string
}

var templateSeeds = []templateSeed{
	{name: "instructions", source: "01_Instructions.xlsx", destination: "Instructions/%s_Instructions.xlsx"},
	{name: "geochemistry", source: "ReportID_Geochemistry.gdb", destination: "%s_Geochemistry.gdb"},
	{name: "ddh", source: "ReportID_DDH.gdb", destination: "%s_DDH.gdb"},
}

// layoutFor derives the destination layout from the job. Deterministic: two
// jobs for the same report map to the same paths.
func (s *Service) layoutFor(job RetrievalJob) Layout {
	root := fmt.Sprintf("%s/%s/%s/%s",
		s.cfg.Storage.NewReportsRoot(), job.Jurisdiction, job.Project, job.ReportID)
	return Layout{
		Root:         root,
		Instructions: root + "/Instructions",
		SourceData:   root + "/Source Data",
	}
}

// provision ensures the three-level folder hierarchy exists and seeds it with
// renamed template copies. Folder creation failures (other than "already
// exists", which EnsureFolder absorbs) abort the job; template copies are
// best-effort conveniences and never do.
func (s *Service) provision(ctx context.Context, job RetrievalJob) (Layout, error) {
	layout := s.layoutFor(job)

	for _, dir := range []string{layout.Root, layout.Instructions, layout.SourceData} {
		if err := s.store.EnsureFolder(ctx, dir); err != nil {
			if errors.Is(err, storage.ErrDisabled) {
				return Layout{}, apperror.ErrConfiguration.WithInternal(err)
			}
			return Layout{}, apperror.NewStorage("folder creation failed", err)
		}
	}

	for _, seed := range templateSeeds {
		src := s.cfg.Storage.TemplateDir() + "/" + seed.source
		dst := layout.Root + "/" + fmt.Sprintf(seed.destination, job.ReportID)

		err := s.store.Copy(ctx, src, dst)
		switch {
		case err == nil:
			metrics.TemplateSeeds.WithLabelValues("copied").Inc()
		case errors.Is(err, storage.ErrConflict), errors.Is(err, storage.ErrNotFound):
			// Expected conditions: destination already seeded, or the
			// template itself is absent from the store.
			metrics.TemplateSeeds.WithLabelValues("skipped").Inc()
			s.log.Warn("template seed skipped",
				logger.Scope("reports.provision"),
				slog.String("seed", seed.name),
				slog.String("destination", dst),
				logger.Error(err),
			)
		default:
			metrics.TemplateSeeds.WithLabelValues("failed").Inc()
			s.log.Warn("template seed failed",
				logger.Scope("reports.provision"),
				slog.String("seed", seed.name),
				slog.String("destination", dst),
				logger.Error(err),
			)
		}
	}

	return layout, nil
}
