package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func newDocumentRepoMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	repo := NewDocumentRepository(sqlxDB, "class-7")
	repo.now = func() time.Time { return time.UnixMilli(1736500000000) }
	return repo, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlxDB.Close()
	}
}

func TestDocumentRepositoryEnsureSchema(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS gradebook_documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestDocumentRepositoryLoad(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"doc_key", "revision", "payload", "updated_at"}).
		AddRow("class-7", 4, `{"revision":1,"subjects":[{"id":"subject-1","name":"English","classId":"class-1","rules":[]}]}`, 1736500000000)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT doc_key, revision, payload, updated_at FROM gradebook_documents WHERE doc_key = $1")).
		WithArgs("class-7").
		WillReturnRows(rows)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Revision)
	require.Len(t, doc.Subjects, 1)
	assert.Equal(t, "English", doc.Subjects[0].Name)
}

func TestDocumentRepositoryLoadMissing(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT doc_key, revision, payload").
		WithArgs("class-7").
		WillReturnRows(sqlmock.NewRows([]string{"doc_key", "revision", "payload", "updated_at"}))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentRepositorySaveInsertsFirstRevision(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO gradebook_documents .* ON CONFLICT \\(doc_key\\) DO NOTHING").
		WithArgs("class-7", int64(1), sqlmock.AnyArg(), int64(1736500000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := models.DefaultDocument()
	require.NoError(t, repo.Save(context.Background(), doc))
	assert.Equal(t, int64(1), doc.Revision)
}

func TestDocumentRepositorySaveUpdatesWithRevisionGuard(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE gradebook_documents SET revision = \\$1, payload = \\$2, updated_at = \\$3\\s+WHERE doc_key = \\$4 AND revision = \\$5").
		WithArgs(int64(3), sqlmock.AnyArg(), int64(1736500000000), "class-7", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc := &models.Document{Revision: 2}
	require.NoError(t, repo.Save(context.Background(), doc))
	assert.Equal(t, int64(3), doc.Revision)
}

func TestDocumentRepositorySaveDetectsConflict(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE gradebook_documents").
		WithArgs(int64(3), sqlmock.AnyArg(), sqlmock.AnyArg(), "class-7", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	doc := &models.Document{Revision: 2}
	err := repo.Save(context.Background(), doc)
	assert.ErrorIs(t, err, ErrRevisionConflict)
	assert.Equal(t, int64(2), doc.Revision)
}

func TestDocumentRepositorySaveWrapsDriverErrors(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO gradebook_documents").
		WillReturnError(errors.New("disk full"))

	err := repo.Save(context.Background(), &models.Document{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotErrorIs(t, err, ErrRevisionConflict)
}

func TestMemoryDocumentRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryDocumentRepository()
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, ErrDocumentNotFound)

	doc := models.DefaultDocument()
	require.NoError(t, repo.Save(ctx, doc))
	assert.Equal(t, int64(1), doc.Revision)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Revision)
	assert.Equal(t, doc.Subjects, loaded.Subjects)

	loaded.Subjects[0].Name = "changed"
	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Subjects[0].Name)

	stale := &models.Document{Revision: 0}
	assert.ErrorIs(t, repo.Save(ctx, stale), ErrRevisionConflict)
}
