package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

var (
	// ErrDocumentNotFound is returned by Load when nothing was saved yet.
	ErrDocumentNotFound = errors.New("gradebook document not found")
	// ErrRevisionConflict is returned by Save when the stored revision moved on.
	ErrRevisionConflict = errors.New("gradebook document revision conflict")
)

const documentSchema = `CREATE TABLE IF NOT EXISTS gradebook_documents (
  doc_key TEXT PRIMARY KEY,
  revision BIGINT NOT NULL,
  payload TEXT NOT NULL,
  updated_at BIGINT NOT NULL
)`

type documentRow struct {
	Key       string `db:"doc_key"`
	Revision  int64  `db:"revision"`
	Payload   string `db:"payload"`
	UpdatedAt int64  `db:"updated_at"`
	// Expected is the revision the caller loaded.
	Expected int64 `db:"expected"`
}

// DocumentRepository persists the whole gradebook as one JSON row keyed by
// document key. Works on postgres and sqlite through sqlx rebinding.
type DocumentRepository struct {
	db  *sqlx.DB
	key string
	now func() time.Time
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB, key string) *DocumentRepository {
	if key == "" {
		key = "default"
	}
	return &DocumentRepository{db: db, key: key, now: time.Now}
}

// EnsureSchema creates the document table when missing.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, documentSchema); err != nil {
		return fmt.Errorf("ensure gradebook schema: %w", err)
	}
	return nil
}

// Load reads the stored document.
func (r *DocumentRepository) Load(ctx context.Context) (*models.Document, error) {
	query := r.db.Rebind(`SELECT doc_key, revision, payload, updated_at FROM gradebook_documents WHERE doc_key = ?`)
	var row documentRow
	if err := r.db.GetContext(ctx, &row, query, r.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load gradebook document: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(row.Payload), &doc); err != nil {
		return nil, fmt.Errorf("decode gradebook document: %w", err)
	}
	doc.Revision = row.Revision
	return &doc, nil
}

// Save overwrites the stored document when its revision still matches
// doc.Revision, then advances doc.Revision.
func (r *DocumentRepository) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("save gradebook document: nil document")
	}
	next := *doc
	next.Revision = doc.Revision + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode gradebook document: %w", err)
	}
	row := documentRow{
		Key:       r.key,
		Revision:  next.Revision,
		Payload:   string(payload),
		UpdatedAt: r.now().UTC().UnixMilli(),
		Expected:  doc.Revision,
	}

	var query string
	if doc.Revision == 0 {
		query = `INSERT INTO gradebook_documents (doc_key, revision, payload, updated_at)
VALUES (:doc_key, :revision, :payload, :updated_at)
ON CONFLICT (doc_key) DO NOTHING`
	} else {
		query = `UPDATE gradebook_documents SET revision = :revision, payload = :payload, updated_at = :updated_at
WHERE doc_key = :doc_key AND revision = :expected`
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("save gradebook document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save gradebook document: %w", err)
	}
	if affected == 0 {
		return ErrRevisionConflict
	}
	doc.Revision = next.Revision
	return nil
}
