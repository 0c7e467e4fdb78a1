package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/gradebook"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/logger"
)

const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeConflict = "conflict"
	outcomeRejected = "rejected"

	// mutateAttempts bounds how often a command is replayed on a fresher
	// document after a revision conflict.
	mutateAttempts = 2
)

// DocumentStore loads and saves the whole gradebook.
type DocumentStore interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
}

// Mutation is a pure command applied to a working copy of the document. The
// copy shares slices with the current state, so fn must replace collections
// rather than write into them.
type Mutation func(doc *models.Document) error

// StateService owns the in-process gradebook document. Every command runs
// load, transform and save under one lock.
type StateService struct {
	mu          sync.Mutex
	store       DocumentStore
	doc         *models.Document
	seedOnEmpty bool
	stamper     gradebook.Stamper
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewStateService constructs the state owner.
func NewStateService(store DocumentStore, seedOnEmpty bool, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateService{
		store:       store,
		seedOnEmpty: seedOnEmpty,
		stamper:     gradebook.DefaultStamper(),
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Stamper returns the id and clock source used for new records.
func (s *StateService) Stamper() gradebook.Stamper {
	return s.stamper
}

// Read runs fn against the current document. fn must not modify it.
func (s *StateService) Read(ctx context.Context, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.current(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Mutate applies fn to a copy of the document and persists the result. An
// error from fn aborts the command without saving. Cached scores of
// subjectID are dropped after a successful save.
func (s *StateService) Mutate(ctx context.Context, command, subjectID string, fn Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := logger.WithRequest(ctx, s.logger).With(zap.String("command", command), zap.String("subject_id", subjectID))

	for attempt := 1; ; attempt++ {
		doc, err := s.current(ctx)
		if err != nil {
			s.metrics.RecordMutation(command, outcomeError)
			return err
		}

		next := *doc
		if err := fn(&next); err != nil {
			s.metrics.RecordMutation(command, outcomeRejected)
			return err
		}

		err = s.save(ctx, &next)
		if errors.Is(err, repository.ErrRevisionConflict) {
			// another writer saved first; reload and replay the command
			s.doc = nil
			if attempt < mutateAttempts {
				log.Info("replaying command after revision conflict", zap.Int64("revision", doc.Revision))
				continue
			}
			s.metrics.RecordMutation(command, outcomeConflict)
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, appErrors.ErrConflict.Message)
		}
		if err != nil {
			s.metrics.RecordMutation(command, outcomeError)
			log.Error("save gradebook document failed", zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save gradebook")
		}

		s.doc = &next
		s.metrics.RecordMutation(command, outcomeOK)
		s.metrics.SetDocumentRevision(next.Revision)
		if subjectID != "" {
			_ = s.cache.InvalidateSubject(ctx, subjectID)
		}
		log.Debug("gradebook saved", zap.Int64("revision", next.Revision))
		return nil
	}
}

// Revision returns the revision held in memory, loading it if needed.
func (s *StateService) Revision(ctx context.Context) (int64, error) {
	var revision int64
	err := s.Read(ctx, func(doc *models.Document) error {
		revision = doc.Revision
		return nil
	})
	return revision, err
}

func (s *StateService) current(ctx context.Context) (*models.Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}
	start := time.Now()
	doc, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrDocumentNotFound):
		s.metrics.ObserveStoreOperation("load", "empty", time.Since(start))
		if s.seedOnEmpty {
			s.logger.Info("gradebook store is empty, starting from the sample document")
			doc = models.DefaultDocument()
		} else {
			doc = &models.Document{}
		}
	case err != nil:
		s.metrics.ObserveStoreOperation("load", outcomeError, time.Since(start))
		s.logger.Error("load gradebook document failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gradebook")
	default:
		s.metrics.ObserveStoreOperation("load", outcomeOK, time.Since(start))
	}
	s.doc = doc
	s.metrics.SetDocumentRevision(doc.Revision)
	return doc, nil
}

func (s *StateService) save(ctx context.Context, doc *models.Document) error {
	start := time.Now()
	err := s.store.Save(ctx, doc)
	outcome := outcomeOK
	switch {
	case errors.Is(err, repository.ErrRevisionConflict):
		outcome = outcomeConflict
	case err != nil:
		outcome = outcomeError
	}
	s.metrics.ObserveStoreOperation("save", outcome, time.Since(start))
	return err
}
