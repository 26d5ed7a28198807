package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/pipeline"
	"github.com/flowgridhq/flowgrid/pkg/store"
)

func testServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	srv := httptest.NewServer(NewServer(runner, st, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

func testDocument() flow.Document {
	return flow.Document{
		Nodes: []flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "work", Kind: flow.KindProcess},
			{ID: "end", Kind: flow.KindEnd},
		},
		Edges: []flow.Edge{
			{ID: "e1", Source: "start", Target: "work"},
			{ID: "e2", Source: "work", Target: "end"},
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}

func TestVersion(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/v1/version")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["version"] == "" {
		t.Error("version should be set")
	}
}

func TestLayoutEndpoint(t *testing.T) {
	srv := testServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/layout", LayoutRequest{Document: testDocument()})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("layout status = %d, want 200", resp.StatusCode)
	}

	var body LayoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Document.Nodes) != 3 {
		t.Errorf("response has %d nodes, want 3", len(body.Document.Nodes))
	}
	if body.Score.Total <= 0 {
		t.Errorf("score = %v, want positive", body.Score.Total)
	}
	for _, e := range body.Document.Edges {
		if !e.SourceHandle.Valid() || !e.TargetHandle.Valid() {
			t.Errorf("edge %s missing handle assignment", e.ID)
		}
	}
	// Nodes get default sizes assigned by the engine.
	for _, n := range body.Document.Nodes {
		if n.Width <= 0 || n.Height <= 0 {
			t.Errorf("node %s has no size: %vx%v", n.ID, n.Width, n.Height)
		}
	}
}

func TestLayoutEndpointRejectsBadInput(t *testing.T) {
	srv := testServer(t, nil)

	// Malformed JSON
	resp, err := http.Post(srv.URL+"/v1/layout", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp.StatusCode)
	}

	// Empty document
	resp = postJSON(t, srv.URL+"/v1/layout", LayoutRequest{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty document status = %d, want 400", resp.StatusCode)
	}
}

func TestDiagramLifecycle(t *testing.T) {
	srv := testServer(t, store.NewMemoryStore())
	client := srv.Client()

	// Save
	data, _ := json.Marshal(testDocument())
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/diagrams/checkout", bytes.NewReader(data))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d, want 200", resp.StatusCode)
	}

	// Load
	resp, err = client.Get(srv.URL + "/v1/diagrams/checkout")
	if err != nil {
		t.Fatal(err)
	}
	var doc flow.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(doc.Nodes) != 3 {
		t.Errorf("loaded %d nodes, want 3", len(doc.Nodes))
	}

	// Layout in place
	resp = postJSON(t, srv.URL+"/v1/diagrams/checkout/layout", nil)
	var layoutResp LayoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&layoutResp); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("layout stored status = %d, want 200", resp.StatusCode)
	}

	// The stored document now carries the computed positions.
	resp, err = client.Get(srv.URL + "/v1/diagrams/checkout")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	for _, e := range doc.Edges {
		if !e.SourceHandle.Valid() {
			t.Errorf("stored edge %s missing handles after layout", e.ID)
		}
	}

	// List
	resp, err = client.Get(srv.URL + "/v1/diagrams")
	if err != nil {
		t.Fatal(err)
	}
	var listing struct {
		Diagrams []store.DiagramInfo `json:"diagrams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(listing.Diagrams) != 1 || listing.Diagrams[0].ID != "checkout" {
		t.Errorf("listing = %+v, want one entry for checkout", listing.Diagrams)
	}

	// Delete
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/v1/diagrams/checkout", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	// Gone
	resp, err = client.Get(srv.URL + "/v1/diagrams/checkout")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", resp.StatusCode)
	}
}

func TestDiagramRoutesDisabledWithoutStore(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/v1/diagrams")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("diagrams without store status = %d, want 404", resp.StatusCode)
	}
}
