package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/layout"
	"github.com/flowgridhq/flowgrid/pkg/pipeline"
)

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Document flow.Document `json:"document"`

	// Layout overrides the engine defaults. Zero value means defaults.
	Layout layout.Config `json:"layout,omitempty"`

	// Formats lists extra artifacts to render. The laid-out document is
	// always returned; artifacts are optional.
	Formats    []string `json:"formats,omitempty"`
	EdgeLabels bool     `json:"edge_labels,omitempty"`

	// Refresh bypasses the layout and artifact caches.
	Refresh bool `json:"refresh,omitempty"`
}

// LayoutResponse is the body returned by the layout endpoints.
type LayoutResponse struct {
	Document      flow.Document       `json:"document"`
	Score         layout.Score        `json:"score"`
	Diagnostics   flow.Diagnostics    `json:"diagnostics,omitempty"`
	Iterations    int                 `json:"iterations"`
	Converged     bool                `json:"converged"`
	FrameContents map[string][]string `json:"frameContents,omitempty"`

	// Artifacts maps format to rendered bytes (base64 in JSON).
	Artifacts map[string][]byte `json:"artifacts,omitempty"`

	Cached bool `json:"cached"`
}

// handleLayout lays out an inline document and returns it with updated
// positions and handle assignments.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if len(req.Document.Nodes) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidGraph, "document has no nodes"))
		return
	}

	resp, err := s.runLayout(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runLayout executes the pipeline for a layout request.
func (s *Server) runLayout(r *http.Request, req LayoutRequest) (*LayoutResponse, error) {
	opts := pipeline.Options{
		Document:   &req.Document,
		Layout:     req.Layout,
		Formats:    req.Formats,
		EdgeLabels: req.EdgeLabels,
		Refresh:    req.Refresh,
		Logger:     s.logger,
	}
	if len(req.Formats) == 0 {
		// Respond with the document only; skip artifact rendering.
		opts.Formats = []string{pipeline.FormatJSON}
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		return nil, err
	}

	resp := &LayoutResponse{
		Document:      flow.ToDocument(result.Graph),
		Score:         result.Layout.Score,
		Diagnostics:   result.Diagnostics,
		Iterations:    result.Layout.Iterations,
		Converged:     result.Layout.Converged,
		FrameContents: result.Layout.FrameContents,
		Cached:        result.CacheInfo.LayoutHit,
	}
	if len(req.Formats) > 0 {
		resp.Artifacts = result.Artifacts
	}
	return resp, nil
}

// handleSaveDiagram stores a diagram document under the path ID.
func (s *Server) handleSaveDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc flow.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	if err := s.store.Save(r.Context(), id, doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagrams": infos})
}

// handleLayoutStored loads a stored diagram, lays it out, persists the
// result (including frame contents, so repeat runs keep grouping stable),
// and returns the layout response.
func (s *Server) handleLayoutStored(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req LayoutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
			return
		}
	}
	req.Document = doc

	resp, err := s.runLayout(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Freeze frame membership into the stored document.
	for i := range resp.Document.Nodes {
		n := &resp.Document.Nodes[i]
		if contents, ok := resp.FrameContents[n.ID]; ok {
			n.Contents = contents
		}
	}
	if err := s.store.Save(r.Context(), id, resp.Document); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
