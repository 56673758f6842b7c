package reports

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"sync"
	"sync/atomic"

	"github.com/borealgeo/arvault/pkg/logger"
	"github.com/borealgeo/arvault/pkg/metrics"
)

// fallbackFileName is used when a candidate's final address has no usable
// path component.
const fallbackFileName = "file.pdf"

// runPipeline fetches every candidate and uploads the successes into the
// layout's Source Data folder, returning the success count. Candidates are
// independent: a failed fetch or upload is logged and skipped, never aborting
// the batch. Workers share the fetcher's rate limit; uploads use overwrite
// semantics so whichever duplicate wins the race converges to the same state.
func (s *Service) runPipeline(ctx context.Context, jurisdiction Jurisdiction, candidates []Candidate, layout Layout) int {
	if len(candidates) == 0 {
		return 0
	}

	workers := s.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	type item struct {
		index     int
		candidate Candidate
	}

	jobs := make(chan item)
	var succeeded atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				if s.processCandidate(ctx, jurisdiction, it.index, it.candidate, layout) {
					succeeded.Add(1)
				}
			}
		}()
	}

	for i, c := range candidates {
		jobs <- item{index: i, candidate: c}
	}
	close(jobs)
	wg.Wait()

	return int(succeeded.Load())
}

// processCandidate handles one candidate end to end. Returns true on success.
// Panics are contained here so a single malformed response cannot take down
// the batch.
func (s *Service) processCandidate(ctx context.Context, jurisdiction Jurisdiction, index int, c Candidate, layout Layout) (ok bool) {
	log := s.log.With(
		logger.Scope("reports.pipeline"),
		slog.Int("candidate", index),
		slog.String("address", c.Address),
		slog.String("origin", string(c.Origin)),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("candidate processing panicked", slog.Any("panic", r))
			metrics.DocumentsFailed.WithLabelValues(string(jurisdiction)).Inc()
			ok = false
		}
	}()

	res, err := s.fetcher.Get(ctx, c.Address)
	if err != nil {
		// A missing case-variant guess is the normal outcome for most
		// guessed candidates; keep the noise at debug for those.
		if c.Origin == OriginGuessed {
			log.Debug("candidate fetch miss", logger.Error(err))
		} else {
			log.Info("candidate fetch failed", logger.Error(err))
		}
		metrics.DocumentsFailed.WithLabelValues(string(jurisdiction)).Inc()
		return false
	}

	name := storedFileName(res.FinalURL)
	dst := layout.SourceData + "/" + name

	if err := s.store.Upload(ctx, dst, res.Body); err != nil {
		log.Error("candidate upload failed",
			slog.String("destination", dst),
			logger.Error(err),
		)
		metrics.DocumentsFailed.WithLabelValues(string(jurisdiction)).Inc()
		return false
	}

	log.Info("document stored",
		slog.String("destination", dst),
		slog.Int("size", len(res.Body)),
	)
	metrics.DocumentsDownloaded.WithLabelValues(string(jurisdiction)).Inc()
	return true
}

// storedFileName derives the destination file name from the final resolved
// address's path component.
func storedFileName(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return fallbackFileName
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return fallbackFileName
	}
	return name
}
