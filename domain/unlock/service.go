package unlock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/internal/storage"
	"github.com/borealgeo/arvault/pkg/apperror"
	"github.com/borealgeo/arvault/pkg/logger"
	"github.com/borealgeo/arvault/pkg/metrics"
	"github.com/borealgeo/arvault/pkg/pdfunlock"
)

// Store is the slice of the object store the unlock flow needs.
type Store interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, path string, data []byte) error
}

// Service removes usage restrictions from stored documents in place.
type Service struct {
	store Store
	cfg   *config.Config
	log   *slog.Logger
}

// NewService creates the unlock service.
func NewService(store Store, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		store: store,
		cfg:   cfg,
		log:   log.With(logger.Scope("unlock")),
	}
}

// Result reports what happened to one document.
type Result struct {
	Path     string
	Unlocked bool
	Size     int
}

// Unlock rewrites the document at storePath with its restrictions removed.
// When content is non-empty it is used as the document bytes and the store is
// only written, not read. Paths outside the allowed subtree are rejected
// before any store access.
func (s *Service) Unlock(ctx context.Context, storePath string, content []byte) (*Result, error) {
	cleaned, err := s.allowedPath(storePath)
	if err != nil {
		return nil, err
	}

	data := content
	if len(data) == 0 {
		data, err = s.store.Download(ctx, cleaned)
		if err != nil {
			return nil, storeError("document download failed", err)
		}
	}

	unlocked := pdfunlock.Unlock(data)
	changed := !bytes.Equal(unlocked, data)
	if changed {
		metrics.UnlockTotal.WithLabelValues("unlocked").Inc()
	} else {
		metrics.UnlockTotal.WithLabelValues("passthrough").Inc()
	}

	if err := s.store.Upload(ctx, cleaned, unlocked); err != nil {
		return nil, storeError("document upload failed", err)
	}

	s.log.Info("document processed",
		slog.String("path", cleaned),
		slog.Bool("unlocked", changed),
		slog.Int("size", len(unlocked)),
	)

	return &Result{Path: cleaned, Unlocked: changed, Size: len(unlocked)}, nil
}

// storeError maps a store failure to the right API error: missing credentials
// are the operator's problem, a missing document is the caller's.
func storeError(message string, err error) error {
	switch {
	case errors.Is(err, storage.ErrDisabled):
		return apperror.ErrConfiguration.WithInternal(err)
	case errors.Is(err, storage.ErrNotFound):
		return apperror.ErrNotFound.WithMessage("Document not found at path").WithInternal(err)
	}
	return apperror.NewStorage(message, err)
}

// allowedPath normalizes a requested store path and enforces the configured
// subtree boundary. Normalization happens first so ".." segments cannot
// escape the prefix check.
func (s *Service) allowedPath(storePath string) (string, error) {
	if storePath == "" {
		return "", apperror.NewBadRequest("path is required")
	}
	if !strings.HasPrefix(storePath, "/") {
		storePath = "/" + storePath
	}
	cleaned := path.Clean(storePath)
	if !strings.HasPrefix(cleaned, s.cfg.Storage.UnlockPrefix) {
		return "", apperror.ErrForbiddenPath
	}
	return cleaned, nil
}
