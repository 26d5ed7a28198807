package store

import (
	"context"
	"testing"

	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/flow"
)

func testDoc() flow.Document {
	return flow.Document{
		Nodes: []flow.Node{
			{ID: "a", Kind: flow.KindStart},
			{ID: "b", Kind: flow.KindEnd},
		},
		Edges: []flow.Edge{
			{ID: "e1", Source: "a", Target: "b"},
		},
	}
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if err := s.Save(ctx, "checkout", testDoc()); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	doc, err := s.Load(ctx, "checkout")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("Load = %d nodes, %d edges, want 2 nodes, 1 edge", len(doc.Nodes), len(doc.Edges))
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Load(ctx, "missing")
	if !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("Load missing diagram error = %v, want ErrCodeDiagramNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, "tmp", testDoc()); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, err := s.Load(ctx, "tmp"); !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("Load after Delete error = %v, want ErrCodeDiagramNotFound", err)
	}

	// Deleting a missing diagram is not an error.
	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"alpha", "beta"} {
		if err := s.Save(ctx, id, testDoc()); err != nil {
			t.Fatalf("Save(%s) error: %v", id, err)
		}
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List returned %d diagrams, want 2", len(infos))
	}
	for _, info := range infos {
		if info.NodeCount != 2 || info.EdgeCount != 1 {
			t.Errorf("List info %s = %d nodes, %d edges, want 2 nodes, 1 edge", info.ID, info.NodeCount, info.EdgeCount)
		}
		if info.UpdatedAt.IsZero() {
			t.Errorf("List info %s has zero UpdatedAt", info.ID)
		}
	}
}

func TestMemoryStoreRejectsInvalidID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, "", testDoc()); err == nil {
		t.Error("Save with empty ID should fail")
	}
	if err := s.Save(ctx, "../escape", testDoc()); err == nil {
		t.Error("Save with path traversal ID should fail")
	}
}
