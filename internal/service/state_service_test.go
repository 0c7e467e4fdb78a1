package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type cacheRepoStub struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
	onSet   func(key string)
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{items: map[string][]byte{}}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.onSet != nil {
		s.onSet(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.items[key] = raw
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	return nil
}

// conflictingStore fails the next n saves with a revision conflict after
// another writer bumps the stored revision.
type conflictingStore struct {
	*repository.MemoryDocumentRepository
	conflicts int
	saves     int
}

func (s *conflictingStore) Save(ctx context.Context, doc *models.Document) error {
	s.saves++
	if s.conflicts > 0 {
		s.conflicts--
		current, err := s.MemoryDocumentRepository.Load(ctx)
		if err != nil {
			return err
		}
		current.Teachers = append(current.Teachers, models.Teacher{ID: "other-writer"})
		if err := s.MemoryDocumentRepository.Save(ctx, current); err != nil {
			return err
		}
		return repository.ErrRevisionConflict
	}
	return s.MemoryDocumentRepository.Save(ctx, doc)
}

type failingStore struct {
	loadErr error
	saveErr error
	doc     *models.Document
}

func (s *failingStore) Load(ctx context.Context) (*models.Document, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.doc, nil
}

func (s *failingStore) Save(ctx context.Context, doc *models.Document) error {
	return s.saveErr
}

func seededStore(t *testing.T) *repository.MemoryDocumentRepository {
	t.Helper()
	store := repository.NewMemoryDocumentRepository()
	require.NoError(t, store.Save(context.Background(), models.DefaultDocument()))
	return store
}

func TestStateServiceSeedsEmptyStore(t *testing.T) {
	state := NewStateService(repository.NewMemoryDocumentRepository(), true, nil, nil, nil)

	var subjects int
	require.NoError(t, state.Read(context.Background(), func(doc *models.Document) error {
		subjects = len(doc.Subjects)
		return nil
	}))
	assert.Equal(t, 1, subjects)

	revision, err := state.Revision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), revision)
}

func TestStateServiceEmptyStoreWithoutSeed(t *testing.T) {
	state := NewStateService(repository.NewMemoryDocumentRepository(), false, nil, nil, nil)

	require.NoError(t, state.Read(context.Background(), func(doc *models.Document) error {
		assert.Empty(t, doc.Subjects)
		return nil
	}))
}

func TestStateServiceMutatePersistsAndInvalidates(t *testing.T) {
	store := repository.NewMemoryDocumentRepository()
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	state := NewStateService(store, true, cache, NewMetricsService(), nil)

	err := state.Mutate(context.Background(), "rename", "subject-1", func(doc *models.Document) error {
		subjects := append([]models.Subject(nil), doc.Subjects...)
		subjects[0].Name = "English"
		doc.Subjects = subjects
		return nil
	})
	require.NoError(t, err)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Revision)
	assert.Equal(t, "English", stored.Subjects[0].Name)
	assert.Equal(t, []string{"gradebook:scores:subject-1:*"}, cacheRepo.deleted)
}

func TestStateServiceRejectedMutationDoesNotSave(t *testing.T) {
	store := seededStore(t)
	state := NewStateService(store, true, nil, nil, nil)

	boom := appErrors.Clone(appErrors.ErrValidation, "nope")
	err := state.Mutate(context.Background(), "noop", "", func(doc *models.Document) error {
		doc.Subjects = nil
		return boom
	})
	assert.Same(t, boom, err)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Revision)

	require.NoError(t, state.Read(context.Background(), func(doc *models.Document) error {
		assert.Len(t, doc.Subjects, 1)
		return nil
	}))
}

func TestStateServiceReplaysAfterConflict(t *testing.T) {
	store := &conflictingStore{MemoryDocumentRepository: seededStore(t), conflicts: 1}
	state := NewStateService(store, true, nil, nil, nil)

	calls := 0
	err := state.Mutate(context.Background(), "append_student", "", func(doc *models.Document) error {
		calls++
		doc.Students = append(append([]models.Student(nil), doc.Students...), models.Student{ID: "student-3", ClassID: "class-1"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	stored, err := store.MemoryDocumentRepository.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored.Students, 3)
	assert.Len(t, stored.Teachers, 2)
}

func TestStateServiceReportsPersistentConflict(t *testing.T) {
	store := &conflictingStore{MemoryDocumentRepository: seededStore(t), conflicts: mutateAttempts}
	state := NewStateService(store, true, nil, nil, nil)

	err := state.Mutate(context.Background(), "noop", "", func(doc *models.Document) error { return nil })
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, mutateAttempts, store.saves)
}

func TestStateServiceWrapsStoreFailures(t *testing.T) {
	state := NewStateService(&failingStore{loadErr: errors.New("connection refused")}, true, nil, nil, nil)
	err := state.Read(context.Background(), func(doc *models.Document) error { return nil })
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	state = NewStateService(&failingStore{doc: models.DefaultDocument(), saveErr: errors.New("disk full")}, true, nil, nil, nil)
	err = state.Mutate(context.Background(), "noop", "", func(doc *models.Document) error { return nil })
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.ErrorContains(t, err, "disk full")
}
