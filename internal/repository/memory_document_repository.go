package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// MemoryDocumentRepository keeps the document in process memory. Payloads are
// stored encoded so callers never share slices with the store.
type MemoryDocumentRepository struct {
	mu       sync.Mutex
	payload  []byte
	revision int64
}

// NewMemoryDocumentRepository constructs an empty store.
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{}
}

// Load returns a copy of the stored document.
func (r *MemoryDocumentRepository) Load(_ context.Context) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.payload == nil {
		return nil, ErrDocumentNotFound
	}
	var doc models.Document
	if err := json.Unmarshal(r.payload, &doc); err != nil {
		return nil, fmt.Errorf("decode gradebook document: %w", err)
	}
	doc.Revision = r.revision
	return &doc, nil
}

// Save stores doc when its revision matches the stored one.
func (r *MemoryDocumentRepository) Save(_ context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("save gradebook document: nil document")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.Revision != r.revision {
		return ErrRevisionConflict
	}
	next := *doc
	next.Revision = r.revision + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode gradebook document: %w", err)
	}
	r.payload = payload
	r.revision = next.Revision
	doc.Revision = next.Revision
	return nil
}
