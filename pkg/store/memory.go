package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// MemoryStore is an in-process diagram store for tests and single-shot CLI
// runs. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]diagramRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]diagramRecord)}
}

// Save stores a diagram document, replacing any previous version.
func (s *MemoryStore) Save(_ context.Context, id string, doc flow.Document) error {
	if err := errors.ValidateDiagramID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = diagramRecord{
		ID:        id,
		Document:  doc,
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// Load retrieves a diagram document by ID.
func (s *MemoryStore) Load(_ context.Context, id string) (flow.Document, error) {
	if err := errors.ValidateDiagramID(id); err != nil {
		return flow.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return flow.Document{}, errors.New(errors.ErrCodeDiagramNotFound, "diagram %s not found", id)
	}
	return rec.Document, nil
}

// Delete removes a diagram. Deleting a missing diagram is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if err := errors.ValidateDiagramID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

// List returns summaries for all stored diagrams, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]DiagramInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]DiagramInfo, 0, len(s.recs))
	for _, rec := range s.recs {
		infos = append(infos, DiagramInfo{
			ID:        rec.ID,
			NodeCount: rec.NodeCount,
			EdgeCount: rec.EdgeCount,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
