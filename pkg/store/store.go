// Package store provides persistent diagram storage.
//
// A [Store] keeps named diagram documents so the API and CLI can reload and
// re-lay-out a diagram later. Frame contents persisted with a document keep
// frame membership stable across runs.
//
// Two implementations are provided:
//   - MongoStore: MongoDB-backed store for server deployments
//   - MemoryStore: in-process store for tests and single-shot CLI runs
package store

import (
	"context"
	"time"

	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// DiagramInfo is the listing summary for a stored diagram.
type DiagramInfo struct {
	ID        string    `json:"id" bson:"_id"`
	NodeCount int       `json:"nodeCount" bson:"node_count"`
	EdgeCount int       `json:"edgeCount" bson:"edge_count"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Store is the interface for diagram persistence backends.
type Store interface {
	// Save stores a diagram document under the given ID, replacing any
	// previous version.
	Save(ctx context.Context, id string, doc flow.Document) error

	// Load retrieves a diagram document. A missing diagram returns an error
	// with code ErrCodeDiagramNotFound.
	Load(ctx context.Context, id string) (flow.Document, error)

	// Delete removes a diagram. Deleting a missing diagram is not an error.
	Delete(ctx context.Context, id string) error

	// List returns summaries for all stored diagrams, most recently
	// updated first.
	List(ctx context.Context) ([]DiagramInfo, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
